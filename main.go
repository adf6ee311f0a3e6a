package main

import (
	"context"
	"github.com/csr-ugra/petads-pipeline/cmd"
	"github.com/csr-ugra/petads-pipeline/internal/db"
	"github.com/csr-ugra/petads-pipeline/internal/log"
	"github.com/csr-ugra/petads-pipeline/internal/util"
)

func main() {
	config := util.GetConfig()

	log.InitLogger(config)

	// log panic error
	defer func() {
		if r := recover(); r != nil {
			logger := log.GetLogger()
			logger.Panic(r)
		}
	}()

	if err := run(config); err != nil {
		// re-fetching logger to log with all fields appended during program run
		logger := log.GetLogger()
		logger.Fatalln(err)
	}
}

// run owns the connection so it is closed before main decides how to exit.
func run(config *util.Config) error {
	connection, err := db.GetConnection(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := connection.Close(); err != nil {
			log.GetLogger().WithError(err).Warn("error closing database connection")
		}
	}()

	return cmd.Run(context.Background(), connection, config)
}
