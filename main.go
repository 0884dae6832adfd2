/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/ember/engine"
	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/testbed"
)

func main() {
	configPath := flag.String("config", "ember.toml", "path of the engine configuration file")
	flag.Parse()

	cfg, err := engine.LoadApplicationConfig(*configPath)
	if err != nil {
		core.LogError("%s", err)
		os.Exit(1)
	}

	tb := testbed.NewTestGame(cfg)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogError("%s", err)
		os.Exit(1)
	}

	if err := e.Initialize(); err != nil {
		core.LogError("%s", err)
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the render thread owns every GPU object, so only stop the loop here
	// and let it shut down after its last frame
	go func() {
		<-sigCh
		e.Stop()
	}()

	// run engine
	if err := e.Run(); err != nil {
		core.LogError("%s", err)
	}
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
}
