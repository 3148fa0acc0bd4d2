package dynamo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// fakeDynamo is an in-memory stand-in for the DynamoDB operations the repos
// issue. It understands exactly the expression shapes used in this package.
type fakeDynamo struct {
	mu     sync.Mutex
	keys   map[string]string // table -> hash key attribute
	tables map[string]map[string]item
	fail   error
}

func newFakeDynamo(keys map[string]string) *fakeDynamo {
	f := &fakeDynamo{keys: keys, tables: make(map[string]map[string]item)}
	for t := range keys {
		f.tables[t] = make(map[string]item)
	}
	return f
}

func strOf(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func avEqual(a, b types.AttributeValue) bool {
	switch x := a.(type) {
	case *types.AttributeValueMemberS:
		y, ok := b.(*types.AttributeValueMemberS)
		return ok && x.Value == y.Value
	case *types.AttributeValueMemberBOOL:
		y, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && x.Value == y.Value
	case *types.AttributeValueMemberN:
		y, ok := b.(*types.AttributeValueMemberN)
		return ok && x.Value == y.Value
	}
	return false
}

func copyItem(in item) item {
	out := make(item, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func resolveName(tok string, names map[string]string) string {
	if strings.HasPrefix(tok, "#") {
		return names[tok]
	}
	return tok
}

// checkCondition evaluates attribute_exists(#k) / attribute_not_exists(#k).
func checkCondition(cond *string, names map[string]string, existing item) error {
	if cond == nil {
		return nil
	}
	c := *cond
	exists := existing != nil
	switch {
	case strings.HasPrefix(c, "attribute_not_exists") && exists:
		return &types.ConditionalCheckFailedException{}
	case strings.HasPrefix(c, "attribute_exists") && !exists:
		return &types.ConditionalCheckFailedException{}
	}
	return nil
}

// matchEq evaluates a single "#a = :v" expression against it.
func matchEq(expr *string, names map[string]string, values map[string]types.AttributeValue, it item) bool {
	if expr == nil {
		return true
	}
	parts := strings.SplitN(*expr, " = ", 2)
	if len(parts) != 2 {
		return false
	}
	return avEqual(it[resolveName(parts[0], names)], values[parts[1]])
}

func (f *fakeDynamo) sortedKeys(table string) []string {
	keys := make([]string, 0, len(f.tables[table]))
	for k := range f.tables[table] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	t := *in.TableName
	it := f.tables[t][strOf(in.Key[f.keys[t]])]
	if it == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(it)}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	t := *in.TableName
	k := strOf(in.Item[f.keys[t]])
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, f.tables[t][k]); err != nil {
		return nil, err
	}
	f.tables[t][k] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	t := *in.TableName
	k := strOf(in.Key[f.keys[t]])
	existing := f.tables[t][k]
	if err := checkCondition(in.ConditionExpression, in.ExpressionAttributeNames, existing); err != nil {
		return nil, err
	}
	it := copyItem(existing)
	if it == nil {
		it = copyItem(in.Key)
	}
	expr := *in.UpdateExpression
	var remove string
	if i := strings.Index(expr, " REMOVE "); i >= 0 {
		remove = expr[i+len(" REMOVE "):]
		expr = expr[:i]
	}
	for _, assign := range strings.Split(strings.TrimPrefix(expr, "SET "), ", ") {
		parts := strings.SplitN(assign, " = ", 2)
		it[resolveName(parts[0], in.ExpressionAttributeNames)] = in.ExpressionAttributeValues[parts[1]]
	}
	if remove != "" {
		for _, n := range strings.Split(remove, ", ") {
			delete(it, resolveName(n, in.ExpressionAttributeNames))
		}
	}
	f.tables[t][k] = it
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	t := *in.TableName
	k := strOf(in.Key[f.keys[t]])
	old := f.tables[t][k]
	delete(f.tables[t], k)
	out := &dynamodb.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld && old != nil {
		out.Attributes = old
	}
	return out, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	t := *in.TableName
	var out []item
	for _, k := range f.sortedKeys(t) {
		it := f.tables[t][k]
		if !matchEq(in.KeyConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, it) {
			continue
		}
		if !matchEq(in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, it) {
			continue
		}
		out = append(out, copyItem(it))
		if in.Limit != nil && int32(len(out)) == *in.Limit {
			break
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	t := *in.TableName
	keyAttr := f.keys[t]
	start := ""
	if in.ExclusiveStartKey != nil {
		start = strOf(in.ExclusiveStartKey[keyAttr])
	}
	out := &dynamodb.ScanOutput{}
	var evaluated int32
	for _, k := range f.sortedKeys(t) {
		if start != "" && k <= start {
			continue
		}
		if in.Limit != nil && evaluated == *in.Limit {
			out.LastEvaluatedKey = strKey(keyAttr, start)
			break
		}
		evaluated++
		start = k
		it := f.tables[t][k]
		if matchEq(in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, it) {
			out.Items = append(out.Items, copyItem(it))
		}
	}
	return out, nil
}

var errBackendDown = errors.New("connection refused")
