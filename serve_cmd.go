package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgnsrekt/herald/internal/server"
	"github.com/dgnsrekt/herald/internal/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept utterances over HTTP",
	Long: paragraph(fmt.Sprintf("\n%s POST /say requests with a JSON body like {\"text\": \"deploy done\"}. Also serves /healthz and Prometheus metrics on /metrics.", keyword("Speak"))),
	Example: paragraph("herald serve --addr :7788\ncurl -d '{\"text\":\"hi\"}' localhost:7788/say"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := cliLogger()

		h := startSpeech(logger)
		defer drainSpeech(h, closeTimeout)

		var sp server.Speaker
		if h != nil {
			sp = h
		} else {
			logger.Warn("Speech is unavailable, /say will answer 503")
		}

		srv := server.New(sp,
			server.WithLogger(logger),
			server.WithTextOptions(text.DefaultOptions()),
		)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return srv.ListenAndServe(ctx, viper.GetString("serve.addr"))
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:7788", "address to listen on")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}
