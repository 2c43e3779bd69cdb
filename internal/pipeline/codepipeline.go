package pipeline

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/codepipeline"
	"github.com/google/uuid"
)

// codePipelineAPI is the slice of the CodePipeline client the starter uses.
type codePipelineAPI interface {
	StartPipelineExecution(ctx context.Context, params *codepipeline.StartPipelineExecutionInput, optFns ...func(*codepipeline.Options)) (*codepipeline.StartPipelineExecutionOutput, error)
}

// CodePipelineStarter starts executions via the AWS CodePipeline control API.
type CodePipelineStarter struct {
	client codePipelineAPI
}

// NewCodePipelineStarter builds a starter from the default AWS credential
// chain. Region may be empty, in which case the SDK resolves it from the
// environment (AWS_REGION is always set inside Lambda).
func NewCodePipelineStarter(ctx context.Context, region string) (*CodePipelineStarter, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &CodePipelineStarter{client: codepipeline.NewFromConfig(cfg)}, nil
}

// NewCodePipelineStarterFromClient wraps an existing client. Used by tests.
func NewCodePipelineStarterFromClient(client codePipelineAPI) *CodePipelineStarter {
	return &CodePipelineStarter{client: client}
}

// StartExecution requests a new execution of the named pipeline. A fresh
// client request token is minted per call so each webhook delivery produces
// its own execution rather than deduplicating against a prior one.
func (s *CodePipelineStarter) StartExecution(ctx context.Context, name string) (string, error) {
	out, err := s.client.StartPipelineExecution(ctx, &codepipeline.StartPipelineExecutionInput{
		Name:               aws.String(name),
		ClientRequestToken: aws.String(uuid.New().String()),
	})
	if err != nil {
		return "", fmt.Errorf("start pipeline %s: %w", name, err)
	}

	return aws.ToString(out.PipelineExecutionId), nil
}

var _ Starter = (*CodePipelineStarter)(nil)
