package apiengine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// tagInvalidationDetailType is the EventBridge DetailType published for a
// cross-process cache invalidation, so a consumer's rule can match on it
// without inspecting the payload.
const tagInvalidationDetailType = "apiengine.TagsInvalidated"

// tagInvalidationEvent is the wire shape one process publishes so a peer
// process's reverse tag index can invalidate the same tags locally.
type tagInvalidationEvent struct {
	ReducerPath string `json:"reducerPath"`
	Tags        []Tag  `json:"tags"`
}

// TagInvalidationPublisher fans a tag invalidation out to other processes
// so every process's apiengine.State stays consistent, generalized from
// infrastructure/messaging/eventbridge.EventBridgePublisher.PublishBatch
// (JSON-marshal one entry per event, source/detail-type/time fields, one
// PutEvents call per batch of up to 10) down to a single-entry publish of
// one cache-invalidation signal instead of an arbitrary domain event.
type TagInvalidationPublisher struct {
	client       *eventbridge.Client
	eventBusName string
	source       string
	logger       *zap.Logger
}

// NewTagInvalidationPublisher builds a publisher bound to one EventBridge
// event bus.
func NewTagInvalidationPublisher(client *eventbridge.Client, eventBusName, source string, logger *zap.Logger) *TagInvalidationPublisher {
	if source == "" {
		source = "fluxstate.apiengine"
	}
	return &TagInvalidationPublisher{client: client, eventBusName: eventBusName, source: source, logger: logger}
}

// Publish sends reducerPath's invalidated tags to the event bus so any
// peer process subscribed to tagInvalidationDetailType can apply the same
// invalidation to its own cache.
func (p *TagInvalidationPublisher) Publish(ctx context.Context, reducerPath string, tags []Tag) error {
	if len(tags) == 0 {
		return nil
	}

	payload, err := json.Marshal(tagInvalidationEvent{ReducerPath: reducerPath, Tags: tags})
	if err != nil {
		return fmt.Errorf("apiengine: marshal tag invalidation event: %w", err)
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(tagInvalidationDetailType),
			Detail:       aws.String(string(payload)),
			Time:         aws.Time(time.Now()),
		}},
	}

	result, err := p.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("apiengine: publish tag invalidation: %w", err)
	}
	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("tag invalidation publish failed",
					zap.String("errorCode", *entry.ErrorCode),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("apiengine: %d tag invalidation entries failed to publish", result.FailedEntryCount)
	}
	return nil
}

// DecodeTagInvalidation unmarshals an incoming EventBridge detail payload
// (as delivered to, for example, a Lambda consumer) back into the
// reducerPath/tags pair InvalidateTags needs.
func DecodeTagInvalidation(detail []byte) (reducerPath string, tags []Tag, err error) {
	var evt tagInvalidationEvent
	if err := json.Unmarshal(detail, &evt); err != nil {
		return "", nil, fmt.Errorf("apiengine: decode tag invalidation event: %w", err)
	}
	return evt.ReducerPath, evt.Tags, nil
}
