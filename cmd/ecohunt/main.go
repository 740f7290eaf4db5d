// Package main is the capture client: it records a clip from a source,
// uploads it and prints the verdict.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ecohunt/serverless-backend/internal/capture"
	"github.com/ecohunt/serverless-backend/internal/client"
	"github.com/ecohunt/serverless-backend/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ECOHUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "ecohunt",
		Short:        "Record waste disposals and collect points",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("api", "http://localhost:8080", "base URL of the EcoHunt API")
	root.PersistentFlags().String("user", "", "user id")
	root.PersistentFlags().String("token", "", "bearer token; without it the user id is sent in the dev header")
	root.PersistentFlags().String("log-level", "info", "log level")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newRecordCmd(v), newHistoryCmd(v))
	return root
}

func newClient(v *viper.Viper) (*client.Client, *logrus.Logger, error) {
	log := logging.New(v.GetString("log-level"), false)
	c := client.New(v.GetString("api"), v.GetString("user"), v.GetString("token"), log)
	if c.UserID == "" {
		return nil, nil, fmt.Errorf("--user is required unless --token carries a sub claim")
	}
	return c, log, nil
}

func newRecordCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a clip from --file and submit it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if v.GetString("file") == "" {
				return fmt.Errorf("--file is required")
			}
			c, log, err := newClient(v)
			if err != nil {
				return err
			}
			src := capture.FileSource{
				Path:      v.GetString("file"),
				ChunkSize: v.GetInt("chunk-size"),
				Interval:  v.GetDuration("interval"),
			}
			opts := capture.DefaultOptions
			opts.ContentType = v.GetString("content-type")
			if d := v.GetDuration("duration"); d > 0 {
				opts.MaxDuration = d
			}
			return record(cmd.Context(), capture.NewRecorder(src, c, capture.LogNotifier(log), opts), cmd)
		},
	}
	f := cmd.Flags()
	f.String("file", "", "clip to replay as the camera stream")
	f.String("content-type", capture.DefaultOptions.ContentType, "container of the clip")
	f.Int("chunk-size", 64<<10, "bytes per chunk")
	f.Duration("interval", 0, "delay between chunks, to mimic a live camera")
	f.Duration("duration", 0, "stop after this long (default 30s)")
	_ = v.BindPFlags(f)
	return cmd
}

// record runs one Start/Stop cycle. Ctrl-C stops the recording and submits
// what was captured so far; a second Ctrl-C abandons it.
func record(ctx context.Context, r *capture.Recorder, cmd *cobra.Command) error {
	defer r.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := r.Start(runCtx); err != nil {
		return err
	}
	select {
	case <-r.Ended():
	case <-sigs:
	}

	go func() {
		select {
		case <-sigs:
			cancel()
		case <-runCtx.Done():
		}
	}()
	stopCtx, stopCancel := context.WithTimeout(runCtx, 3*time.Minute)
	defer stopCancel()
	resp, err := r.Stop(stopCtx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "points this session: %d\n", r.Points())
	return err
}

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show your score and recent submissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := newClient(v)
			if err != nil {
				return err
			}
			res, err := c.History(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
