package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/justworkflowit/workflow-deployer/internal/formatting"
	"github.com/justworkflowit/workflow-deployer/internal/lifecycle"
)

var (
	handleInput       string
	handleRequestType string
)

var handleCmd = &cobra.Command{
	Use:   "handle",
	Short: "Process one lifecycle request",
	Long: `Processes a single Create, Update or Delete lifecycle request and prints
the result as JSON.

The request is read from --input, or from stdin when --input is "-" or
unset:

  {"RequestType": "Update", "ResourceProperties": {"timestamp": "1700000000"}}

--request-type builds the request directly instead.

The command exits non-zero when the invocation failed; the printed result
then carries Status FAILED and the Reason.`,
	Args: cobra.NoArgs,
	RunE: runHandle,
}

func runHandle(cmd *cobra.Command, args []string) error {
	req, err := readRequest(cmd.InOrStdin())
	if err != nil {
		return err
	}

	application, err := newApplication()
	if err != nil {
		return err
	}
	defer func() { _ = application.Shutdown(context.WithoutCancel(cmd.Context())) }()

	resp, handleErr := application.Handle(cmd.Context(), req)
	fmt.Fprintln(cmd.OutOrStdout(), formatting.PrettyJSON(lifecycle.NewResult(resp, handleErr)))
	return handleErr
}

func readRequest(stdin io.Reader) (lifecycle.Request, error) {
	if handleRequestType != "" {
		return lifecycle.Request{RequestType: lifecycle.RequestType(handleRequestType)}, nil
	}

	var data []byte
	var err error
	if handleInput == "" || handleInput == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(handleInput)
	}
	if err != nil {
		return lifecycle.Request{}, fmt.Errorf("failed to read lifecycle request: %w", err)
	}

	var req lifecycle.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return lifecycle.Request{}, fmt.Errorf("invalid lifecycle request: %w", err)
	}
	return req, nil
}

func init() {
	rootCmd.AddCommand(handleCmd)

	handleCmd.Flags().StringVarP(&handleInput, "input", "i", "", "File holding the request JSON (default stdin)")
	handleCmd.Flags().StringVar(&handleRequestType, "request-type", "", "Request type (Create, Update, Delete) instead of reading a request")
}
