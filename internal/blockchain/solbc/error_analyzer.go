package solbc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// AnchorError represents an error from Anchor framework
type AnchorError struct {
	Code int
	Name string
	Msg  string
}

// SubmitError is a send failure annotated with what the node reported.
type SubmitError struct {
	Err    error
	Code   int
	Anchor *AnchorError
	Logs   []string
}

func (e *SubmitError) Error() string {
	if e.Anchor != nil {
		return fmt.Sprintf("%v (anchor %d %s: %s)", e.Err, e.Anchor.Code, e.Anchor.Name, e.Anchor.Msg)
	}
	return e.Err.Error()
}

func (e *SubmitError) Unwrap() error { return e.Err }

// AnalyzeSubmitError extracts simulation logs and the Anchor error, if any, from a send error.
func AnalyzeSubmitError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}

	out := &SubmitError{Err: err, Code: rpcErr.Code}
	dataMap, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return out
	}
	logs, _ := dataMap["logs"].([]interface{})
	for _, entry := range logs {
		line, ok := entry.(string)
		if !ok {
			continue
		}
		out.Logs = append(out.Logs, line)
		if strings.Contains(line, "AnchorError occurred") {
			a := parseAnchorErrorLog(line)
			out.Anchor = &a
		}
	}
	return out
}

// parseAnchorErrorLog parses an Anchor error log string
// Example: "Program log: AnchorError occurred. Error Code: TooMuchSolRequired. Error Number: 6002. Error Message: slippage."
func parseAnchorErrorLog(logStr string) AnchorError {
	result := AnchorError{}

	if parts := strings.SplitN(logStr, "Error Number:", 2); len(parts) == 2 {
		numParts := strings.Split(parts[1], ".")
		fmt.Sscanf(strings.TrimSpace(numParts[0]), "%d", &result.Code)
	}
	if parts := strings.SplitN(logStr, "Error Code:", 2); len(parts) == 2 {
		result.Name = strings.TrimSpace(strings.Split(parts[1], ".")[0])
	}
	if parts := strings.SplitN(logStr, "Error Message:", 2); len(parts) == 2 {
		result.Msg = strings.TrimSuffix(strings.TrimSpace(parts[1]), ".")
	}
	return result
}

// isMissingAccountRPCError matches the node's "could not find account" reply.
func isMissingAccountRPCError(err error) bool {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		msg := strings.ToLower(rpcErr.Message)
		return strings.Contains(msg, "could not find account") || strings.Contains(msg, "invalid param: could not find")
	}
	return false
}
