// Package cli provides the aquatrack command-line client.
//
// With a subcommand it runs that command once and exits:
//
//	aquatrack register | login | logout | whoami
//	aquatrack drink <ml> | today | month [YYYY-MM] | avatar <file>
//
// Without one it starts an interactive loop accepting the same commands.
// The session survives between invocations in a local sqlite file.
package cli
