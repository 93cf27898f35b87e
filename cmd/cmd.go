package cmd

import (
	"flag"
	"fmt"
)

// AdminCmd handles the "admin" subcommand: inspect or reset the panel
// credentials without starting the app.
func AdminCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	reset := fs.Bool("reset", false, "reset admin credentials to admin/admin")
	show := fs.Bool("show", false, "show current admin credentials")
	username := fs.String("username", "", "set admin username")
	password := fs.String("password", "", "set admin password")
	if err := fs.Parse(args); err != nil {
		fmt.Println(err)
		return
	}

	switch {
	case *reset:
		resetAdmin()
	case *show:
		showAdmin()
	case *username != "" || *password != "":
		updateAdmin(*username, *password)
	default:
		fs.Usage()
	}
}
