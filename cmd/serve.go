package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Start the storefront and management HTTP API and the catalog event consumer",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.StartConsumer(); err != nil {
		zap.S().Errorf("Failed to start RabbitMQ consumer: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		zap.S().Infof("Starting server on port %s", a.Config.App.Port)
		serverErr <- a.Fiber.Listen(a.Config.App.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	zap.S().Info("Shutting down server...")
	if err := a.Fiber.Shutdown(); err != nil {
		zap.S().Errorf("Error during Fiber shutdown: %v", err)
	}
	zap.S().Info("Server gracefully stopped")
	return nil
}
