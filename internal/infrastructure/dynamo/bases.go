package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/flightdesk-api/internal/domain"
)

type BaseRepo struct {
	client    API
	tableName string
}

func NewBaseRepo(client API, tableName string) *BaseRepo {
	return &BaseRepo{client: client, tableName: tableName}
}

func (r *BaseRepo) Put(ctx context.Context, b *domain.Base) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal base: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return unavailable("put base", err)
	}
	return nil
}

func (r *BaseRepo) Get(ctx context.Context, baseID string) (*domain.Base, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldBaseID, baseID),
	})
	if err != nil {
		return nil, unavailable("get base", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("base %s: %w", baseID, domain.ErrNotFound)
	}
	var b domain.Base
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, fmt.Errorf("unmarshal base: %w", err)
	}
	return &b, nil
}

// List returns every enabled base.
func (r *BaseRepo) List(ctx context.Context) ([]domain.Base, error) {
	var items []map[string]types.AttributeValue
	if err := scanEnabled(ctx, r.client, r.tableName, &items); err != nil {
		return nil, unavailable("scan bases", err)
	}
	bases := make([]domain.Base, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &bases); err != nil {
		return nil, fmt.Errorf("unmarshal bases: %w", err)
	}
	return bases, nil
}

func (r *BaseRepo) Update(ctx context.Context, baseID string, updates map[string]interface{}) error {
	return updateExisting(ctx, r.client, r.tableName, strKey(fieldBaseID, baseID), fieldBaseID, updates)
}

func (r *BaseRepo) SoftDelete(ctx context.Context, baseID string) error {
	return r.Update(ctx, baseID, map[string]interface{}{fieldEnable: false})
}

// scanEnabled pages through the whole table collecting items with enable = true.
func scanEnabled(ctx context.Context, client API, table string, items *[]map[string]types.AttributeValue) error {
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(table),
		FilterExpression:          aws.String("#e = :t"),
		ExpressionAttributeNames:  map[string]string{"#e": fieldEnable},
		ExpressionAttributeValues: map[string]types.AttributeValue{":t": &types.AttributeValueMemberBOOL{Value: true}},
	}
	for {
		out, err := client.Scan(ctx, input)
		if err != nil {
			return err
		}
		*items = append(*items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// updateExisting applies updates to the item at key and reports domain.ErrNotFound
// when there is no such item.
func updateExisting(ctx context.Context, client API, table string, key map[string]types.AttributeValue, keyAttr string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#k"] = keyAttr
	_, err = client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#k)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("%s: %w", table, domain.ErrNotFound)
	}
	if err != nil {
		return unavailable("update "+table, err)
	}
	return nil
}
