package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/ccm/internal/services"
	"github.com/desertthunder/ccm/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to a running ccm server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, !cmd.Bool("compact"))
}

// APIPost makes a direct POST request with a JSON body
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	data, err := jsonBody(cmd.String("data"), true)
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.api.Post(ctx, path, data)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

// APIPut makes a direct PUT request; the link and save endpoints take no body.
func (r *Runner) APIPut(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	data, err := jsonBody(cmd.String("data"), false)
	if err != nil {
		return err
	}

	r.logger.Info("PUT request", "path", path)

	resp, err := r.api.Put(ctx, path, data)
	if err != nil {
		return err
	}
	return r.writeResponse(resp, true)
}

// writeResponse prints the body and turns a non-2xx status into an error carrying the server's message.
func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		if err := r.writeJSON(resp.JSONData, pretty); err != nil {
			return err
		}
	} else if len(resp.Body) > 0 {
		r.output.Write(resp.Body)
		r.output.Write([]byte("\n"))
	}

	if !resp.OK() {
		err := fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
		if resp.StatusCode == http.StatusServiceUnavailable {
			err = fmt.Errorf("%w: %w", err, shared.ErrServiceUnavailable)
		}
		if msg := resp.Message(); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func jsonBody(data string, required bool) ([]byte, error) {
	if data == "" {
		if required {
			return nil, fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
		}
		return nil, nil
	}

	if !json.Valid([]byte(data)) {
		return nil, fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}
	return []byte(data), nil
}
