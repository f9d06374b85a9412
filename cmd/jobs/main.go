// Command jobs runs one maintenance job and exits, for use from an external scheduler.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"quillpost-backend-go/internal/config"
	"quillpost-backend-go/internal/db"
	"quillpost-backend-go/internal/events"
	"quillpost-backend-go/internal/jobs"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	jobName := pflag.StringP("job", "j", "", fmt.Sprintf("job to run (%s|%s)", jobs.JobMonthlyReset, jobs.JobSubscriptionRenewals))
	timeout := pflag.Duration("timeout", 10*time.Minute, "maximum run time")
	pflag.Parse()

	os.Exit(run(*jobName, *timeout))
}

// run returns the process exit code; every resource it opens is released before it returns.
func run(jobName string, timeout time.Duration) int {
	if jobName != jobs.JobMonthlyReset && jobName != jobs.JobSubscriptionRenewals {
		pflag.Usage()
		return exitUsage
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Printf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
		return exitFail
	}
	if appConfig.StoreDriver != config.StoreDriverFirestore {
		log.Printf("CRITICAL_ERROR: jobs need STORE_DRIVER=%s, got %q", config.StoreDriverFirestore, appConfig.StoreDriver)
		return exitFail
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Printf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
		return exitFail
	}
	defer zapLogger.Sync()
	logger := zapLogger.With(zap.String("job", jobName))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clients, err := db.InitFirestore(ctx, appConfig, logger)
	if err != nil {
		logger.Error("CRITICAL_ERROR: Failed to initialize Firestore", zap.Error(err))
		return exitFail
	}
	defer clients.Close()

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if appConfig.RabbitMQURL != "" {
		rabbit, err := events.NewRabbitMQPublisher(events.RabbitMQConfig{URL: appConfig.RabbitMQURL, Queue: appConfig.RabbitMQQueue}, logger)
		if err != nil {
			logger.Warn("Falling back to log publisher", zap.Error(err))
		} else {
			publisher = rabbit
		}
	}
	defer publisher.Close()

	maintenance := jobs.NewMaintenanceJobs(db.NewFirestoreUserRepository(clients.Firestore, nil, logger), publisher, logger)
	if err := maintenance.Run(ctx, jobName); err != nil {
		logger.Error("Job failed", zap.Error(err))
		return exitFail
	}
	logger.Info("Job finished")
	return exitOK
}
