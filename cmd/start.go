package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vidmill/vidmill/auth"
	"github.com/vidmill/vidmill/config"
	"github.com/vidmill/vidmill/database"
	"github.com/vidmill/vidmill/ds"
	"github.com/vidmill/vidmill/pipeline"
	"github.com/vidmill/vidmill/publisher"
	"github.com/vidmill/vidmill/server"
	"github.com/vidmill/vidmill/transcoder"
)

const (
	logFormatJSON = "json"
	logFormatText = "text"
)

var (
	logLevel   string
	logFormat  string
	configPath string
)

func getStartCmd() *cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the vidmill API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logLvl, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(logLvl)

			if logFormat == logFormatText {
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.JWTSecretKey == "" {
				return fmt.Errorf("JWT_SECRET_KEY is required")
			}

			if err := cfg.EnsureDirs(); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			// Mongo
			db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoName)
			if err != nil {
				return err
			}
			defer db.Close(context.Background())

			// IPFS publisher
			pub := publisher.NewIPFS(cfg.IPFSAddr, cfg.IPFSGateway)
			if !pub.IsUp() {
				return fmt.Errorf("ipfs api is down!")
			}

			// Job status datastore
			statusDs, err := ds.Open(cfg.StatusDir)
			if err != nil {
				return err
			}
			defer statusDs.Close()
			statuses := ds.NewStatusStore(statusDs)

			ffmpeg := transcoder.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath)

			pipe := pipeline.New(
				ffmpeg,
				pub,
				db.Videos(),
				statuses,
				cfg.OutputDir,
				cfg.TranscodeTimeout,
			)

			tokens := auth.NewTokenService(cfg.JWTSecretKey)

			srv := server.New(server.Deps{
				Users:        db.Users(),
				Videos:       db.Videos(),
				Pipeline:     pipe,
				Tokens:       tokens,
				Publisher:    pub,
				Statuses:     statuses,
				UploadDir:    cfg.UploadDir,
				MaxListLimit: cfg.MaxListLimit,
			})

			// create HTTP router and mount routes
			router := mux.NewRouter()
			c := cors.New(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Origin", "Authorization", "Content-Type", "Accept"},
			})

			srv.RegisterRoutes(router)

			httpSrv := &http.Server{
				Handler:      c.Handler(router),
				Addr:         cfg.ListenAddr(),
				WriteTimeout: 15 * time.Minute,
				ReadTimeout:  15 * time.Minute,
			}

			log.Info().Str("address", cfg.ListenAddr()).Msg("starting API server...")
			return httpSrv.ListenAndServe()
		},
	}

	startCmd.Flags().StringVar(&logLevel, "log-level", zerolog.InfoLevel.String(), "logging level")
	startCmd.Flags().StringVar(&logFormat, "log-format", logFormatJSON, "logging format; must be either json or text")
	startCmd.Flags().StringVar(&configPath, "config", "", "path to an optional YAML config file")

	return startCmd
}
