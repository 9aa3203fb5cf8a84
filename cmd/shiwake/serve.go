package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"

	"github.com/Veraticus/shiwake/internal/api"
	"github.com/Veraticus/shiwake/internal/certs"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Start the HTTP API for invoice upload, classification, the audit ledger,
CSV generation and learning corrections. The server stops gracefully on interrupt.

With --tls a self-signed certificate for localhost and the listen host is
generated in server.cert_dir and reused until it nears expiry.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	cmd.Flags().Bool("release", false, "run gin in release mode")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	if release, _ := cmd.Flags().GetBool("release"); release {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		opts := api.Options{
			Logger:        slog.Default(),
			UploadDir:     a.settings.UploadDir,
			MaxBatchFiles: a.settings.BatchMaxFiles,
		}
		if a.settings.ServerTLS {
			cfg, err := serverTLS(a.settings.CertDir, a.settings.ServerAddr)
			if err != nil {
				return err
			}
			opts.TLS = cfg
		}

		srv := api.NewServer(a.classifier, a.pipeline, a.store, a.store, opts)
		return srv.Run(ctx, a.settings.ServerAddr)
	})
}

func serverTLS(certDir, addr string) (*tls.Config, error) {
	var hosts []string
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		hosts = append(hosts, host)
	}

	m := certs.NewFileManager(certDir, hosts...)
	cert, err := m.GetOrCreateCertificate()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare TLS certificate: %w", err)
	}
	certFile, _ := m.Files()
	slog.Info("Using self-signed certificate", "cert", certFile)

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
