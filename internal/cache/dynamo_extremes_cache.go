package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bbernstein/tideresonance/backend-go/internal/config"
	"github.com/bbernstein/tideresonance/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

// ExtremesStore persists extremes records between process lifetimes.
type ExtremesStore interface {
	GetExtremes(ctx context.Context, key string) (*models.ExtremesRecord, error)
	SaveExtremes(ctx context.Context, record models.ExtremesRecord) error
	SaveExtremesBatch(ctx context.Context, records []models.ExtremesRecord) error
}

// DynamoExtremesCache stores extremes records in DynamoDB with a TTL attribute.
type DynamoExtremesCache struct {
	client DynamoDBClient
	config *config.CacheConfig
	clock  clock
}

var _ ExtremesStore = (*DynamoExtremesCache)(nil)

func NewDynamoExtremesCache(client DynamoDBClient, cacheConfig *config.CacheConfig) *DynamoExtremesCache {
	if cacheConfig == nil {
		cacheConfig = config.GetCacheConfig()
	}
	return &DynamoExtremesCache{
		client: client,
		config: cacheConfig,
		clock:  realClock{},
	}
}

func (c *DynamoExtremesCache) GetExtremes(ctx context.Context, key string) (*models.ExtremesRecord, error) {
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.config.ExtremesTableName),
		Key: map[string]types.AttributeValue{
			"cacheKey": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting extremes from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var record models.ExtremesRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling extremes record: %w", err)
	}

	// DynamoDB deletes expired items lazily
	if c.clock.Now().Unix() >= record.TTL {
		log.Debug().Str("cache_key", key).Msg("Cache expired")
		return nil, nil
	}

	return &record, nil
}

func (c *DynamoExtremesCache) SaveExtremes(ctx context.Context, record models.ExtremesRecord) error {
	item, err := c.marshal(record)
	if err != nil {
		return err
	}

	if _, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.config.ExtremesTableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("putting extremes in DynamoDB: %w", err)
	}

	log.Debug().
		Str("station_id", record.StationID).
		Str("cache_key", record.Key).
		Msg("Saved extremes to cache")

	return nil
}

// SaveExtremesBatch writes records in batches of BatchSize, retrying each batch
// with exponential backoff.
func (c *DynamoExtremesCache) SaveExtremesBatch(ctx context.Context, records []models.ExtremesRecord) error {
	batchSize := c.config.BatchSize
	if batchSize <= 0 {
		batchSize = 25
	}

	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, record := range records[i:end] {
			item, err := c.marshal(record)
			if err != nil {
				return err
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		var lastErr error
		for retry := 0; retry < c.config.MaxBatchRetries; retry++ {
			_, err := c.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					c.config.ExtremesTableName: writeRequests,
				},
			})
			if err == nil {
				lastErr = nil
				break
			}
			lastErr = err

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(1<<retry) * 100 * time.Millisecond):
			}
		}
		if lastErr != nil {
			return fmt.Errorf("batch writing extremes after %d retries: %w", c.config.MaxBatchRetries, lastErr)
		}
	}

	return nil
}

func (c *DynamoExtremesCache) marshal(record models.ExtremesRecord) (map[string]types.AttributeValue, error) {
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extremes record: %w", err)
	}

	now := c.clock.Now().Unix()
	record.LastUpdated = now
	record.TTL = now + int64(c.config.GetDynamoTTL().Seconds())

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("marshaling extremes record: %w", err)
	}
	return item, nil
}
