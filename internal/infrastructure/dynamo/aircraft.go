package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/flightdesk-api/internal/domain"
)

type AircraftRepo struct {
	client    API
	tableName string
}

func NewAircraftRepo(client API, tableName string) *AircraftRepo {
	return &AircraftRepo{client: client, tableName: tableName}
}

func (r *AircraftRepo) Put(ctx context.Context, a *domain.Aircraft) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal aircraft: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return unavailable("put aircraft", err)
	}
	return nil
}

func (r *AircraftRepo) Get(ctx context.Context, aircraftID string) (*domain.Aircraft, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAircraftID, aircraftID),
	})
	if err != nil {
		return nil, unavailable("get aircraft", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("aircraft %s: %w", aircraftID, domain.ErrNotFound)
	}
	var a domain.Aircraft
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, fmt.Errorf("unmarshal aircraft: %w", err)
	}
	a.HasImage = a.ImageKey != ""
	return &a, nil
}

// List returns enabled aircraft, optionally restricted to one base.
func (r *AircraftRepo) List(ctx context.Context, baseID string) ([]domain.Aircraft, error) {
	var items []map[string]types.AttributeValue
	if baseID == "" {
		if err := scanEnabled(ctx, r.client, r.tableName, &items); err != nil {
			return nil, unavailable("scan aircraft", err)
		}
	} else {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                aws.String(r.tableName),
			IndexName:                aws.String(indexAircraftBase),
			KeyConditionExpression:   aws.String("#a = :v"),
			FilterExpression:         aws.String("#e = :t"),
			ExpressionAttributeNames: map[string]string{"#a": fieldBaseID, "#e": fieldEnable},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: baseID},
				":t": &types.AttributeValueMemberBOOL{Value: true},
			},
		})
		if err != nil {
			return nil, unavailable("query aircraft", err)
		}
		items = out.Items
	}
	list := make([]domain.Aircraft, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &list); err != nil {
		return nil, fmt.Errorf("unmarshal aircraft: %w", err)
	}
	for i := range list {
		list[i].HasImage = list[i].ImageKey != ""
	}
	return list, nil
}

func (r *AircraftRepo) Update(ctx context.Context, aircraftID string, updates map[string]interface{}) error {
	return updateExisting(ctx, r.client, r.tableName, strKey(fieldAircraftID, aircraftID), fieldAircraftID, updates)
}

func (r *AircraftRepo) SetImage(ctx context.Context, aircraftID, key string) error {
	return r.Update(ctx, aircraftID, map[string]interface{}{fieldImageKey: key})
}

func (r *AircraftRepo) SoftDelete(ctx context.Context, aircraftID string) error {
	return r.Update(ctx, aircraftID, map[string]interface{}{fieldEnable: false})
}
