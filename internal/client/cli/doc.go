// Package cli provides the interactive GophSend command-line client.
//
// App wires configuration, the local database, the share service client,
// the owned files manager and the transfer coordinator, then runs a REPL on
// standard input. Transfers run in the background; their progress and
// outcome are printed as coordinator events arrive.
//
// Commands:
//   - upload <path>                 share a file
//   - download <url> [password|-]   fetch a shared file; "-" prompts
//   - cancel                        stop the active transfer
//   - list                          show owned files
//   - refresh                       reconcile owned files with the service now
//   - delete <id>                   delete an owned file
//   - limit <id> <n>                change the download limit
//   - password <id>                 protect an owned file with a password
//   - stats                         show transfer totals
//   - exit | quit
package cli
