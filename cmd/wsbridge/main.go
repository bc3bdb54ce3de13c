package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dbClient queries the connections table, which WebSocket connect handlers
// outside this module populate. apiClient pushes the one-way signal to each open WebSocket.
// Both are package-level so they survive across warm Lambda invocations.
var (
	dbClient         *dynamodb.Client
	apiClient        *apigatewaymanagementapi.Client
	connectionsTable string
)

func init() {
	connectionsTable = os.Getenv("CONNECTIONS_TABLE_NAME")
	wsEndpoint := os.Getenv("WEBSOCKET_API_ENDPOINT")

	cfg, err := awsConfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config: %v", err)
	}

	dbClient = dynamodb.NewFromConfig(cfg)
	apiClient = apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = &wsEndpoint
	})
}

// StateChangedEvent is the EventBridge detail this bridge reacts to: some
// publisher outside this command (nothing in this module emits it) signals
// that channel's state moved, without carrying the
// state itself — clients refetch through the api engine's own cache
// rather than receiving a pushed payload (spec §1's "notify, don't
// push data").
type StateChangedEvent struct {
	Channel string `json:"channel"`
}

const signalMessage = `{"type":"stateChanged"}`

// handler broadcasts signalMessage to every WebSocket connection
// registered under channel, cleaning up any connection API Gateway
// reports as gone.
func handler(ctx context.Context, event events.EventBridgeEvent) error {
	var detail StateChangedEvent
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return err
	}

	pk := "CHANNEL#" + detail.Channel
	result, err := dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(connectionsTable),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk_prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":        &types.AttributeValueMemberS{Value: pk},
			":sk_prefix": &types.AttributeValueMemberS{Value: "CONN#"},
		},
	})
	if err != nil {
		return err
	}

	for _, item := range result.Items {
		connectionID := strings.TrimPrefix(item["SK"].(*types.AttributeValueMemberS).Value, "CONN#")

		_, err := apiClient.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: &connectionID,
			Data:         []byte(signalMessage),
		})
		if err == nil {
			continue
		}

		var goneErr *apigwTypes.GoneException
		if errors.As(err, &goneErr) {
			log.Printf("stale connection, deleting: %s", connectionID)
			_, _ = dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(connectionsTable),
				Key: map[string]types.AttributeValue{
					"PK": item["PK"],
					"SK": item["SK"],
				},
			})
			continue
		}
		log.Printf("failed to post to connection %s: %v", connectionID, err)
	}

	return nil
}

func main() {
	lambda.Start(handler)
}
