package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/maskmap/internal/server"
)

const version = "1.0.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for mask map generation",
	Long: `Start an HTTP server that bakes uploaded albedo textures.

Each bake is stored in its own directory under --workdir and its outputs can
be downloaded individually.

Examples:
  # Start server on default port 8080
  maskmap serve

  # Start server on custom port
  maskmap serve --port 3000

  # Start server with custom bind address and work directory
  maskmap serve --bind 0.0.0.0 --port 8080 --workdir /var/lib/maskmap`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 60*time.Second, "request timeout")
	serveCmd.Flags().String("workdir", filepath.Join(os.TempDir(), "maskmap"), "directory holding uploads and bake outputs")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.workdir", serveCmd.Flags().Lookup("workdir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")
	workdir := viper.GetString("server.workdir")

	addr := fmt.Sprintf("%s:%d", bind, port)

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(workdir, 0o755); err != nil {
		return fmt.Errorf("create workdir: %v", err)
	}

	apiServer := server.NewServer(version, workdir, fs)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(apiServer, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting maskmap server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Work directory: %s\n", workdir)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Bake endpoint: http://%s/api/v1/bakes\n", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
