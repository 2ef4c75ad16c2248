// Package coordinator keeps an operator's matching desk consistent.
//
// A desk shows three paged views: clients without a helper, helper
// candidates for the selected client, and existing pairings. The
// Coordinator owns those views and the client selection, sends assign and
// unassign requests to the backend, and after each successful mutation
// reloads the views whose contents it changed.
//
// Views never block each other. Each view tags every request with a
// sequence number and drops responses that arrive after a newer request
// was issued or after the view was reset or closed, so the view always
// reflects the most recently requested page.
package coordinator
