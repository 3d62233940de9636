// Package journal records launch outcomes in a local SQLite database.
//
// Each launch row captures which targets were waited for, which init steps
// ran, and how the launch ended. Supervised launches are finished in a
// second write once the server exits, so the journal also carries exit
// codes. Old rows are pruned on every write to keep the database small.
package journal
