package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/textsift/textsift/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP processing API",
	Long: `Start an HTTP server exposing document processing and session
management.

Endpoints:
  POST   /process     process one uploaded document synchronously
  POST   /batch       start an asynchronous batch job
  GET    /jobs/{id}   poll a batch job
  GET    /sessions    list session directories
  DELETE /sessions    prune sessions (?keep=N)
  GET    /ws/process  websocket processing with per-page progress
  GET    /healthz     liveness
  GET    /metrics     prometheus metrics

Examples:
  textsift serve
  textsift serve --host 0.0.0.0 --port 3000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		eng, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		srv, err := server.New(eng, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "listen host")
	serveCmd.Flags().Int("port", 8080, "listen port")
	serveCmd.Flags().Int("max-upload-mb", 50, "upload size limit in megabytes")
	serveCmd.Flags().Int("rate-limit-rps", 10, "per-client requests per second (0 disables)")
	serveCmd.Flags().Int("rate-limit-burst", 20, "per-client burst size")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.max_upload_mb", serveCmd.Flags().Lookup("max-upload-mb"))
	_ = viper.BindPFlag("server.rate_limit_rps", serveCmd.Flags().Lookup("rate-limit-rps"))
	_ = viper.BindPFlag("server.rate_limit_burst", serveCmd.Flags().Lookup("rate-limit-burst"))
}
