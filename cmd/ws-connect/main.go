// Package main implements the websocket $connect/$disconnect Lambda handler.
// Connections authenticate with a JWT passed as a query parameter, since
// browsers cannot set headers on websocket upgrades.
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/infrastructure/config"
	"github.com/hoyacom/apiman/infrastructure/persistence/dynamodb"
	"github.com/hoyacom/apiman/pkg/auth"
)

var (
	connections *dynamodb.ConnectionStore
	validator   *auth.JWTValidator
	logger      *zap.Logger
)

func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	client := awsdynamodb.NewFromConfig(awsCfg)
	connections = dynamodb.NewConnectionStore(client, cfg.ConnectionsTable, cfg.IndexName, logger)

	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "development-secret-change-in-production"
	}
	validator, err = auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		log.Fatalf("Failed to create token validator: %v", err)
	}
}

func handler(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := request.RequestContext.ConnectionID

	switch request.RequestContext.RouteKey {
	case "$connect":
		return handleConnect(ctx, request, connectionID)
	case "$disconnect":
		return handleDisconnect(ctx, connectionID)
	default:
		logger.Warn("Unexpected websocket route",
			zap.String("routeKey", request.RequestContext.RouteKey),
			zap.String("connectionID", connectionID),
		)
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNotFound}, nil
	}
}

func handleConnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest, connectionID string) (events.APIGatewayProxyResponse, error) {
	token := request.QueryStringParameters["token"]
	if token == "" {
		token = request.Headers["Authorization"]
	}

	claims, err := validator.ValidateToken(token)
	if err != nil {
		logger.Warn("Websocket authentication failed",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusUnauthorized,
			Body:       `{"error":"unauthorized"}`,
		}, nil
	}

	if err := connections.Save(ctx, claims.Username, connectionID); err != nil {
		logger.Error("Failed to store connection",
			zap.String("connectionID", connectionID),
			zap.String("username", claims.Username),
			zap.Error(err),
		)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error":"internal server error"}`,
		}, nil
	}

	logger.Info("Websocket connection established",
		zap.String("connectionID", connectionID),
		zap.String("username", claims.Username),
	)

	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

func handleDisconnect(ctx context.Context, connectionID string) (events.APIGatewayProxyResponse, error) {
	if err := connections.Delete(ctx, connectionID); err != nil {
		logger.Warn("Failed to delete connection",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		log.Println("This handler only runs inside AWS Lambda")
		return
	}
	lambda.Start(handler)
}
