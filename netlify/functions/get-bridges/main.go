package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

func main() {
	lambda.Start(gateway.Function("get-bridges").Lambda())
}
