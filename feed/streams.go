// Package feed turns DynamoDB Streams into the push channel of the
// reservation coordinator: a background consumer reads the Matches and
// SlotRequests table streams and wakes match-scoped and recipient-scoped
// subscribers. Delivery is at-least-once and unordered, and a dropped shard
// loses records; the poll fallback in the sync manager covers the gaps.
package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

const (
	shardPollInterval    = time.Second
	shardRefreshInterval = 30 * time.Second
)

// StreamsFeed dispatches stream records to subscribers. Subscriber channels
// carry no payload: a signal only means "state may have changed, re-fetch".
type StreamsFeed struct {
	Client *dynamodbstreams.Client

	mu        sync.Mutex
	matchSubs map[string]map[chan struct{}]struct{}
	userSubs  map[string]map[chan struct{}]struct{}
}

// NewStreamsFeed creates a feed reading through the given streams client.
func NewStreamsFeed(client *dynamodbstreams.Client) *StreamsFeed {
	return &StreamsFeed{
		Client:    client,
		matchSubs: make(map[string]map[chan struct{}]struct{}),
		userSubs:  make(map[string]map[chan struct{}]struct{}),
	}
}

// SubscribeMatch wakes the returned channel on any change to the match's
// ledger row or its request records.
func (f *StreamsFeed) SubscribeMatch(matchID string) (<-chan struct{}, func()) {
	return subscribe(&f.mu, f.matchSubs, matchID)
}

// SubscribeRecipient wakes the returned channel on changes addressed to the
// user: inbound requests for owners, decisions for requesters.
func (f *StreamsFeed) SubscribeRecipient(userID string) (<-chan struct{}, func()) {
	return subscribe(&f.mu, f.userSubs, userID)
}

func subscribe(mu *sync.Mutex, subs map[string]map[chan struct{}]struct{}, key string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	mu.Lock()
	if subs[key] == nil {
		subs[key] = make(map[chan struct{}]struct{})
	}
	subs[key][ch] = struct{}{}
	mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			mu.Lock()
			if set, ok := subs[key]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(subs, key)
				}
			}
			mu.Unlock()
		})
	}
	return ch, cancel
}

// Run consumes the given stream ARNs until ctx is cancelled. Shards are
// discovered periodically; each shard is tailed from LATEST, so records
// written before startup are never replayed.
func (f *StreamsFeed) Run(ctx context.Context, streamArns []string) {
	var wg sync.WaitGroup
	for _, arn := range streamArns {
		if arn == "" {
			continue
		}
		wg.Add(1)
		go func(arn string) {
			defer wg.Done()
			f.consumeStream(ctx, arn)
		}(arn)
	}
	wg.Wait()
}

func (f *StreamsFeed) consumeStream(ctx context.Context, streamArn string) {
	tracked := make(map[string]bool)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		out, err := f.Client.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn: aws.String(streamArn),
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("describe stream %s: %v", streamArn, err)
		} else {
			for _, shard := range out.StreamDescription.Shards {
				shardID := aws.ToString(shard.ShardId)
				if shardID == "" || tracked[shardID] {
					continue
				}
				tracked[shardID] = true
				wg.Add(1)
				go func(shardID string) {
					defer wg.Done()
					f.consumeShard(ctx, streamArn, shardID)
				}(shardID)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(shardRefreshInterval):
		}
	}
}

func (f *StreamsFeed) consumeShard(ctx context.Context, streamArn, shardID string) {
	iterator, err := f.shardIterator(ctx, streamArn, shardID)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("shard iterator %s/%s: %v", streamArn, shardID, err)
		}
		return
	}

	for iterator != "" {
		out, err := f.Client.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
			ShardIterator: aws.String(iterator),
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Iterators expire after 15 minutes idle; re-acquire and move on.
			log.Printf("get records %s/%s: %v", streamArn, shardID, err)
			iterator, err = f.shardIterator(ctx, streamArn, shardID)
			if err != nil {
				return
			}
			continue
		}
		for _, record := range out.Records {
			f.dispatch(record)
		}
		// A nil next iterator means the shard is closed; the periodic
		// DescribeStream picks up its children.
		iterator = aws.ToString(out.NextShardIterator)

		select {
		case <-ctx.Done():
			return
		case <-time.After(shardPollInterval):
		}
	}
}

func (f *StreamsFeed) shardIterator(ctx context.Context, streamArn, shardID string) (string, error) {
	out, err := f.Client.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         aws.String(streamArn),
		ShardId:           aws.String(shardID),
		ShardIteratorType: types.ShardIteratorTypeLatest,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.ShardIterator), nil
}

// dispatch routes one stream record. Match scoping comes from the item key;
// recipient scoping from requesterId/ownerId on whichever image is present.
func (f *StreamsFeed) dispatch(record types.Record) {
	if record.Dynamodb == nil {
		return
	}
	if matchID := stringAttr(record.Dynamodb.Keys, "matchId"); matchID != "" {
		f.notify(f.matchSubs, matchID)
	}
	image := record.Dynamodb.NewImage
	if image == nil {
		image = record.Dynamodb.OldImage
	}
	if requesterID := stringAttr(image, "requesterId"); requesterID != "" {
		f.notify(f.userSubs, requesterID)
	}
	if ownerID := stringAttr(image, "ownerId"); ownerID != "" {
		f.notify(f.userSubs, ownerID)
	}
}

func (f *StreamsFeed) notify(subs map[string]map[chan struct{}]struct{}, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range subs[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func stringAttr(image map[string]types.AttributeValue, name string) string {
	if image == nil {
		return ""
	}
	if member, ok := image[name].(*types.AttributeValueMemberS); ok {
		return member.Value
	}
	return ""
}
