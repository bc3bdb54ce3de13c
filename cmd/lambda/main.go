package main

import (
	"context"
	"log"
	"os"
	"time"

	"fluxstate/di"
	"fluxstate/httpapi"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"
)

var (
	// chiLambda wraps the example backend's router for Lambda integration.
	chiLambda *chiadapter.ChiLambdaV2

	// container holds the dependency injection container built once at
	// cold start and reused across warm invocations.
	container *di.Container

	// coldStart tracks whether the next invocation is the cold-start one.
	coldStart = true

	coldStartTime time.Time
)

// init runs during cold start.
func init() {
	coldStartTime = time.Now()
	log.Println("lambda cold start initiated")

	var err error
	container, err = di.NewContainer(os.Getenv("FLUXSTATE_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	chiLambda = chiadapter.NewV2(httpapi.NewRouter(container))

	log.Printf("lambda cold start completed in %v", time.Since(coldStartTime))
}

// Handler is the Lambda function entrypoint, proxying API Gateway HTTP API
// v2 events through the same chi router cmd/server serves over plain HTTP.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	wasCold := coldStart
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		resp.Headers["X-Cold-Start-Duration"] = time.Since(coldStartTime).String()
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if container != nil && container.Logger != nil {
		container.Logger.Info("lambda response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status_code", resp.StatusCode),
			zap.Bool("cold_start", wasCold),
		)
	}

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
