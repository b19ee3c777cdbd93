package dynamo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bike-resale-api/internal/domain"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// expression is a rendered DynamoDB expression with its placeholder maps.
type expression struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET expression.
// Fields are emitted in sorted order so the output is deterministic.
func buildUpdateExpr(updates map[string]interface{}) (expression, error) {
	if len(updates) == 0 {
		return expression{}, errors.New("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := expression{
		Names:  make(map[string]string, len(keys)),
		Values: make(map[string]types.AttributeValue, len(keys)),
	}
	parts := make([]string, 0, len(keys))
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return expression{}, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Names[nameKey] = k
		ue.Values[valueKey] = av
		parts = append(parts, nameKey+" = "+valueKey)
	}
	ue.Expr = "SET " + strings.Join(parts, ", ")
	return ue, nil
}

// buildFilterExpr renders a listing filter as a FilterExpression. Equality
// predicates come first, then ranges, each in field-name order. An empty
// filter yields an empty expression.
func buildFilterExpr(f domain.ListingFilter) expression {
	fe := expression{
		Names:  map[string]string{},
		Values: map[string]types.AttributeValue{},
	}
	var parts []string
	for i, field := range f.TextFields() {
		n, v := fmt.Sprintf("#t%d", i), fmt.Sprintf(":t%d", i)
		fe.Names[n] = string(field)
		fe.Values[v] = &types.AttributeValueMemberS{Value: f.Text[field]}
		parts = append(parts, n+" = "+v)
	}
	for i, field := range f.RangeFields() {
		r := f.Ranges[field]
		n := fmt.Sprintf("#r%d", i)
		lo, hi := fmt.Sprintf(":lo%d", i), fmt.Sprintf(":hi%d", i)
		fe.Names[n] = string(field)
		switch {
		case r.Min != nil && r.Max != nil:
			fe.Values[lo] = numberAV(*r.Min)
			fe.Values[hi] = numberAV(*r.Max)
			parts = append(parts, n+" BETWEEN "+lo+" AND "+hi)
		case r.Min != nil:
			fe.Values[lo] = numberAV(*r.Min)
			parts = append(parts, n+" >= "+lo)
		case r.Max != nil:
			fe.Values[hi] = numberAV(*r.Max)
			parts = append(parts, n+" <= "+hi)
		}
	}
	fe.Expr = strings.Join(parts, " AND ")
	return fe
}

func numberAV(n int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprint(n)}
}

// mergeNames copies src into dst, returning dst.
func mergeNames(dst, src map[string]string) map[string]string {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func mergeValues(dst, src map[string]types.AttributeValue) map[string]types.AttributeValue {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// isConditionFailed reports whether err is a failed ConditionExpression.
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
