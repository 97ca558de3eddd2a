package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/hydrophys/internal/domain/types"
)

const (
	defaultServerURL = "http://localhost:9080"
	defaultTimeout   = 30 * time.Second
	defaultPoll      = 250 * time.Millisecond
)

// remoteFlags address a running server.
type remoteFlags struct {
	url     string
	timeout time.Duration
}

func (f *remoteFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", defaultServerURL, "base URL of the hydrophys server")
	cmd.Flags().DurationVar(&f.timeout, "timeout", defaultTimeout, "HTTP request timeout")
}

type submitResult struct {
	Accepted types.BatchAccepted `json:"accepted"`
	Jobs     []types.JobStatus   `json:"jobs,omitempty"`
}

func newSubmitCmd(out *output) *cobra.Command {
	var (
		remote remoteFlags
		wait   bool
		poll   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Submit a batch of depth/path jobs to a running server",
		Long: `Reads a batch from FILE ("-" for stdin) and posts it to /batches.
The batch is either {"jobs": [...]} or a bare array of jobs; each job is a
solve request with "kind" set to depth or path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readBatch(cmd, args[0])
			if err != nil {
				return err
			}

			c := newClient(remote.url, remote.timeout)
			accepted, err := c.submitBatch(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("submit batch: %w", err)
			}

			res := submitResult{Accepted: accepted}
			if wait && len(accepted.JobIDs) > 0 {
				res.Jobs, err = c.waitBatch(cmd.Context(), accepted.BatchID, poll)
				if err != nil {
					return fmt.Errorf("wait for batch %s: %w", accepted.BatchID, err)
				}
			}

			if *out.json {
				return out.print(cmd, res, "")
			}
			printSubmit(cmd, res)
			return nil
		},
	}
	remote.bind(cmd)
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until every job has finished")
	cmd.Flags().DurationVar(&poll, "poll", defaultPoll, "poll interval with --wait")
	return cmd
}

func readBatch(cmd *cobra.Command, path string) (types.BatchRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return types.BatchRequest{}, fmt.Errorf("read batch: %w", err)
	}

	var req types.BatchRequest
	if err := json.Unmarshal(data, &req.Jobs); err != nil {
		if err := json.Unmarshal(data, &req); err != nil {
			return types.BatchRequest{}, fmt.Errorf("parse batch: %w", err)
		}
	}
	if len(req.Jobs) == 0 {
		return types.BatchRequest{}, errors.New("batch has no jobs")
	}
	return req, nil
}

func printSubmit(cmd *cobra.Command, res submitResult) {
	a := res.Accepted
	cmd.Printf("batch %s: %d accepted, %d duplicate, %d rejected\n",
		a.BatchID, len(a.JobIDs), len(a.Duplicates), len(a.Rejected))
	for _, j := range res.Jobs {
		switch {
		case j.Value != nil:
			cmd.Printf("  %s %-5s %-6s %.3f m\n", j.JobID, j.Kind, j.Status, *j.Value)
		case j.Reason != "":
			cmd.Printf("  %s %-5s %-6s %s\n", j.JobID, j.Kind, j.Status, j.Reason)
		default:
			cmd.Printf("  %s %-5s %s\n", j.JobID, j.Kind, j.Status)
		}
	}
}
