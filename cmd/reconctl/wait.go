package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the recon server to be ready",
	Long: `Wait for the recon server to be ready by polling the status endpoint.

This command will repeatedly check the server status until it responds
successfully or the maximum number of retries is reached. The status
endpoint only succeeds once the database is reachable.

Example:
  reconctl wait
  reconctl wait --port 3000 --retries 60`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		retries, _ := cmd.Flags().GetInt("retries")

		url := fmt.Sprintf("http://localhost:%d/", port)
		if err := waitForServer(os.Stdout, url, retries, time.Second); err != nil {
			fmt.Fprintf(os.Stderr, "Server did not become ready: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("port", "p", defaultPortInt(), "Server port to check")
	waitCmd.Flags().IntP("retries", "r", 90, "Number of retries")
}

func waitForServer(w io.Writer, url string, retries int, interval time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}

	_, _ = fmt.Fprintln(w, "Waiting for recon to be ready...")

	for i := 0; i < retries; i++ {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode < 300 {
				_, _ = fmt.Fprintln(w)
				_, _ = fmt.Fprintln(w, "recon is ready!")
				return nil
			}
		}

		_, _ = fmt.Fprint(w, ".")
		time.Sleep(interval)
	}

	_, _ = fmt.Fprintln(w)
	return fmt.Errorf("recon is not ready after %d attempts", retries)
}
