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

// IdentityRepo provides typed DynamoDB operations for the users table.
// The table is keyed by email; user_id-index serves lookups by ID.
type IdentityRepo struct {
	client    API
	tableName string
}

func NewIdentityRepo(client API, tableName string) *IdentityRepo {
	return &IdentityRepo{client: client, tableName: tableName}
}

func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, unavailable("get identity", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("identity %s: %w", email, domain.ErrNotFound)
	}
	return unmarshalIdentity(out.Item)
}

func (r *IdentityRepo) Get(ctx context.Context, userID string) (*domain.Identity, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserID),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: userID}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, unavailable("query identity", err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("identity %s: %w", userID, domain.ErrNotFound)
	}
	return unmarshalIdentity(out.Items[0])
}

// Create inserts ident unless an identity with the same email exists, in which
// case it returns domain.ErrConflict.
func (r *IdentityRepo) Create(ctx context.Context, ident *domain.Identity) error {
	item, err := attributevalue.MarshalMap(ident)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": fieldEmail},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("identity %s exists: %w", ident.Email, domain.ErrConflict)
	}
	if err != nil {
		return unavailable("create identity", err)
	}
	return nil
}

// Update writes the mutable access fields of ident back to the table.
func (r *IdentityRepo) Update(ctx context.Context, ident *domain.Identity) error {
	perms := ident.Permissions
	updates := map[string]interface{}{
		"role":         string(ident.Role),
		fieldEnable:    ident.Enable,
		"first_name":   ident.FirstName,
		"last_name":    ident.LastName,
		fieldUpdatedAt: time.Now().UTC(),
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	expr := ue.Expr
	if len(perms) > 0 {
		ue.Names["#perms"] = "permissions"
		ue.Values[":perms"] = &types.AttributeValueMemberSS{Value: perms}
		expr += ", #perms = :perms"
	} else {
		// String sets cannot be empty.
		ue.Names["#perms"] = "permissions"
		expr += " REMOVE #perms"
	}
	ue.Names["#k"] = fieldEmail
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, ident.Email),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#k)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("identity %s: %w", ident.UserID, domain.ErrNotFound)
	}
	if err != nil {
		return unavailable("update identity", err)
	}
	return nil
}

// List returns a page of identities. cursor is an opaque token returned by a
// previous call; the returned cursor is empty on the last page.
func (r *IdentityRepo) List(ctx context.Context, limit int32, cursor string) ([]domain.Identity, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		email, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey(fieldEmail, email)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", unavailable("scan identities", err)
	}
	idents := make([]domain.Identity, 0, len(out.Items))
	for _, it := range out.Items {
		ident, err := unmarshalIdentity(it)
		if err != nil {
			return nil, "", err
		}
		idents = append(idents, *ident)
	}
	next := ""
	if v, ok := out.LastEvaluatedKey[fieldEmail].(*types.AttributeValueMemberS); ok {
		next = encodeCursor(v.Value)
	}
	return idents, next, nil
}

func unmarshalIdentity(item map[string]types.AttributeValue) (*domain.Identity, error) {
	var ident domain.Identity
	if err := attributevalue.UnmarshalMap(item, &ident); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	return &ident, nil
}
