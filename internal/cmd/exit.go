package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	errwrap "github.com/gridwatch/gridwatch/internal/errors"
	"github.com/gridwatch/gridwatch/internal/metrics"
	"github.com/gridwatch/gridwatch/internal/observability"
)

const (
	exitFailure       = foundry.ExitFailure
	exitConfigInvalid = foundry.ExitConfigInvalid
	exitFileNotFound  = foundry.ExitFileNotFound
	exitUpstream      = foundry.ExitExternalServiceUnavailable
)

// configError marks errors that come from configuration rather than the
// command's work.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func wrapConfigError(cmd *cobra.Command, err error) error {
	return &configError{err: errwrap.WrapConfigInvalid(cmd.Context(), err, err.Error())}
}

// exitCodeFor picks the foundry exit code for an error returned by a
// command.
func exitCodeFor(err error) foundry.ExitCode {
	var cfgErr *configError
	if stderrors.As(err, &cfgErr) {
		return exitConfigInvalid
	}
	if stderrors.Is(err, os.ErrNotExist) {
		return exitFileNotFound
	}

	switch errwrap.EnsureEnvelope(err).Code {
	case errwrap.CodeRateLimited, errwrap.CodeExternalService, errwrap.CodeTimeout, errwrap.CodeServiceUnavailable:
		return exitUpstream
	case errwrap.CodeConfigInvalid:
		return exitConfigInvalid
	default:
		return exitFailure
	}
}

// exitForError records and reports a failed command, then exits.
func exitForError(cmd *cobra.Command, err error) {
	code := exitCodeFor(err)
	name := commandName(cmd)
	metrics.RecordCommandError(name, int(code))
	ExitWithCode(observability.CLILogger, code, fmt.Sprintf("%s failed", name), err)
}

func commandName(cmd *cobra.Command) string {
	if cmd == nil {
		return rootCmd.Name()
	}
	return cmd.CommandPath()
}

// ExitWithCode logs err with foundry exit code metadata and exits. A nil
// logger falls back to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok || logger == nil {
		ExitWithCodeStderr(exitCode, msg, err)
		return
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) {
		fields = append(fields,
			zap.String("error_code", envelope.Code),
			zap.String("correlation_id", envelope.CorrelationID))
		if len(envelope.Details) > 0 {
			fields = append(fields, zap.Any("error_details", envelope.Details))
		}
		if len(envelope.Context) > 0 {
			fields = append(fields, zap.Any("error_context", envelope.Context))
		}
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	logger.Error(msg, fields...)
	os.Exit(info.Code)
}

// ExitWithCodeStderr is a variant that writes to stderr without a logger.
// Use this for early failures before logger initialization.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}

	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d\n", exitCode)
		os.Exit(int(exitCode))
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
	os.Exit(info.Code)
}
