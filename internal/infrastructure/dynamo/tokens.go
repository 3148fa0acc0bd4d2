package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/flightdesk-api/internal/domain"
	pkgtoken "github.com/flightdesk-api/internal/pkg/token"
)

const (
	maxIssueAttempts = 5
	tokenRetention   = 24 * time.Hour
)

type tokenItem struct {
	TokenHash string `dynamodbav:"token_hash"`
	Email     string `dynamodbav:"email"`
	ExpiresAt int64  `dynamodbav:"expires_at"` // Unix milliseconds
	PurgeAt   int64  `dynamodbav:"purge_at"`   // Unix seconds, table TTL attribute
}

// TokenRepo is the DynamoDB-backed magic-link token store. DeleteItem with
// ALL_OLD makes redemption a single atomic read-and-remove.
type TokenRepo struct {
	client    API
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

func NewTokenRepo(client API, tableName string, ttl time.Duration) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName, ttl: ttl, now: time.Now}
}

func (r *TokenRepo) Issue(ctx context.Context, email string) (domain.PendingToken, error) {
	for i := 0; i < maxIssueAttempts; i++ {
		tok, err := pkgtoken.New()
		if err != nil {
			return domain.PendingToken{}, err
		}
		exp := r.now().Add(r.ttl)
		item, err := attributevalue.MarshalMap(tokenItem{
			TokenHash: pkgtoken.Hash(tok),
			Email:     email,
			ExpiresAt: exp.UnixMilli(),
			PurgeAt:   exp.Add(tokenRetention).Unix(),
		})
		if err != nil {
			return domain.PendingToken{}, fmt.Errorf("marshal token: %w", err)
		}
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(r.tableName),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#k)"),
			ExpressionAttributeNames: map[string]string{"#k": fieldTokenHash},
		})
		if isConditionFailed(err) {
			continue
		}
		if err != nil {
			return domain.PendingToken{}, unavailable("store token", err)
		}
		return domain.PendingToken{Token: tok, Email: email, ExpiresAt: exp}, nil
	}
	return domain.PendingToken{}, errors.New("could not allocate a unique token")
}

func (r *TokenRepo) Redeem(ctx context.Context, tok string) (string, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          strKey(fieldTokenHash, pkgtoken.Hash(tok)),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return "", unavailable("redeem token", err)
	}
	if len(out.Attributes) == 0 {
		return "", domain.ErrTokenNotFound
	}
	var item tokenItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return "", fmt.Errorf("unmarshal token: %w", err)
	}
	if r.now().After(time.UnixMilli(item.ExpiresAt)) {
		return "", domain.ErrTokenExpired
	}
	return item.Email, nil
}
