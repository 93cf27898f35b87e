package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZKyNetOfficial/zkynet-client/app"
	"github.com/ZKyNetOfficial/zkynet-client/cmd"
)

func runApp() {
	a := app.NewApp()
	err := a.Init()
	if err != nil {
		log.Fatal(err)
	}
	err = a.Start()
	if err != nil {
		log.Fatal(err)
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals; SIGHUP restarts the app in place.
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for sig := range sigCh {
		switch sig {
		case syscall.SIGHUP:
			log.Println("restarting...")
			a.Stop()
			a = app.NewApp()
			if err := a.Init(); err != nil {
				log.Fatal(err)
			}
			if err := a.Start(); err != nil {
				log.Fatal(err)
			}
		default:
			a.Stop()
			log.Println("shutdown")
			return
		}
	}
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		cmd.AdminCmd(os.Args[2:])
		return
	}
	runApp()
}
