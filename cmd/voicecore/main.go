// Command voicecore runs the acoustic front-end and command-recognition
// pipeline as a standalone process. It stands in for the host-language
// binding layer spec.md treats as out of scope: a real integration calls
// engine.Init/Listen/Cleanup from another language's runtime instead of a
// CLI loop.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"voicecore/internal/command"
	"voicecore/internal/config"
	"voicecore/internal/engine"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "voicecore",
	})

	cfg := config.Default()
	eng := engine.New()
	if err := eng.Init(cfg, engine.DefaultOptions()); err != nil {
		logger.Fatal("init failed", "err", err)
	}
	defer eng.Cleanup()

	logger.Info("ready", "vocabulary_size", mustCommands(eng, logger))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go listenLoop(eng, logger, done)

	select {
	case <-stop:
		logger.Info("shutting down")
	case <-done:
	}
}

func mustCommands(eng *engine.Engine, logger *log.Logger) int {
	cmds, err := eng.GetCommands()
	if err != nil {
		logger.Fatal("get commands failed", "err", err)
	}
	return len(cmds)
}

func listenLoop(eng *engine.Engine, logger *log.Logger, done chan<- struct{}) {
	for {
		res, err := eng.Listen(5 * time.Second)
		if err != nil {
			logger.Error("listen failed", "err", err)
			close(done)
			return
		}
		switch res.Kind {
		case command.ResultWake:
			logger.Info("wake detected", "phrase", res.Phrase)
		case command.ResultCommand:
			logger.Info("command detected", "id", res.CommandID, "phrase", res.Phrase)
		default:
			logger.Debug("listen timed out, still listening")
		}
	}
}
