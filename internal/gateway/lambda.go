package gateway

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandler is the signature accepted by lambda.Start for proxy events
type LambdaHandler func(ctx context.Context, event events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error)

// Lambda adapts the resource to Netlify and API Gateway proxy events.
// Failures are reported in the response, never as a handler error.
func (r *Resource) Lambda() LambdaHandler {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error) {
		resp := r.Handle(ctx, Request{
			Method:    event.HTTPMethod,
			Query:     event.QueryStringParameters,
			RequestID: event.RequestContext.RequestID,
		})

		return &events.APIGatewayProxyResponse{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}, nil
	}
}
