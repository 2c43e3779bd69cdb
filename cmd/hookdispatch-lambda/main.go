package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/RohanKhanal14/lambda-monorepo/internal/config"
	"github.com/RohanKhanal14/lambda-monorepo/internal/dispatch"
	"github.com/RohanKhanal14/lambda-monorepo/internal/github"
	"github.com/RohanKhanal14/lambda-monorepo/internal/pipeline"
)

var (
	logger     *slog.Logger
	dispatcher *dispatch.Dispatcher
	initErr    error
)

// init builds the dispatcher once per execution environment. Failures are
// deferred to request time so the function can report 500 instead of
// crash-looping.
func init() {
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load("")
	if err != nil {
		initErr = fmt.Errorf("load config: %w", err)
		return
	}

	ruleConfigs := make([]dispatch.Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		ruleConfigs = append(ruleConfigs, dispatch.Rule{Prefix: r.Prefix, Pipelines: r.Pipelines})
	}
	rules, err := dispatch.NewRuleSet(ruleConfigs)
	if err != nil {
		initErr = fmt.Errorf("build rule set: %w", err)
		return
	}

	starter, err := pipeline.NewCodePipelineStarter(context.Background(), cfg.AWS.Region)
	if err != nil {
		initErr = fmt.Errorf("create codepipeline client: %w", err)
		return
	}

	dispatcher, err = dispatch.New(cfg.GitHub.WebhookSecret, rules, starter, nil, logger)
	if err != nil {
		initErr = fmt.Errorf("create dispatcher: %w", err)
	}
}

func handleRequest(ctx context.Context, req events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	if initErr != nil {
		logger.Error("init failed", slog.String("error", initErr.Error()))
		return respond(500, map[string]string{"error": "server misconfigured"}), nil
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return respond(400, map[string]string{"error": "invalid body encoding"}), nil
		}
		body = decoded
	}

	del := dispatch.Delivery{
		ID:          header(req.Headers, github.DeliveryHeader),
		Event:       header(req.Headers, github.EventHeader),
		ContentType: header(req.Headers, "Content-Type"),
		Signature:   header(req.Headers, github.SignatureHeader),
		Body:        body,
	}

	report, err := dispatcher.Dispatch(ctx, del)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrInvalidSignature):
			return respond(401, map[string]string{"error": "invalid signature"}), nil
		case errors.Is(err, dispatch.ErrInvalidPayload):
			return respond(400, map[string]string{"error": "invalid payload"}), nil
		default:
			logger.Error("dispatch failed", slog.String("error", err.Error()))
			return respond(500, map[string]string{"error": "internal error"}), nil
		}
	}

	switch report.Outcome {
	case dispatch.OutcomePong:
		return respond(200, map[string]string{"message": "pong"}), nil
	case dispatch.OutcomeIgnored:
		return respond(200, map[string]string{
			"message": fmt.Sprintf("event %s received", report.Event),
		}), nil
	default:
		return respond(200, report), nil
	}
}

// header looks a name up in the Function URL header map, which lowercases
// keys, while tolerating any casing from other event sources.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	if v, ok := headers[strings.ToLower(name)]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func respond(status int, v any) events.LambdaFunctionURLResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return events.LambdaFunctionURLResponse{
			StatusCode: 500,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"internal error"}`,
		}
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func main() {
	lambda.Start(handleRequest)
}
