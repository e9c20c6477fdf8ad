package query_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bgggggh/cs409-mp3/internal/query"
)

func params(pairs ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return v
}

func TestParseDefaults(t *testing.T) {
	opts, err := query.Parse(params(), query.Tasks())
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, opts.Filter)
	assert.Empty(t, opts.Sort)
	assert.Nil(t, opts.Projection)
	assert.EqualValues(t, 0, opts.Skip)
	assert.EqualValues(t, 100, opts.Limit) // tasks default
	assert.False(t, opts.Count)

	opts, err = query.Parse(params(), query.Users())
	require.NoError(t, err)
	assert.EqualValues(t, 0, opts.Limit) // users are unbounded by default
}

func TestParseWhere(t *testing.T) {
	opts, err := query.Parse(params("where", `{"completed":true}`), query.Tasks())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"completed": true}, opts.Filter)

	opts, err = query.Parse(params("where", `{"name":"Write report"}`), query.Tasks())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": "Write report"}, opts.Filter)
}

func TestParseWhereObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	opts, err := query.Parse(params("where", `{"assignedUser":"`+id.Hex()+`"}`), query.Tasks())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"assignedUser": id}, opts.Filter)

	// null matches unassigned tasks
	opts, err = query.Parse(params("where", `{"assignedUser":null}`), query.Tasks())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"assignedUser": nil}, opts.Filter)
}

func TestParseWhereOperators(t *testing.T) {
	opts, err := query.Parse(params("where", `{"deadline":{"$lt":"2026-01-01"}}`), query.Tasks())
	require.NoError(t, err)
	cond, ok := opts.Filter["deadline"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), cond["$lt"])

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	opts, err = query.Parse(params("where", `{"_id":{"$in":["`+a.Hex()+`","`+b.Hex()+`"]}}`), query.Tasks())
	require.NoError(t, err)
	cond, ok = opts.Filter["_id"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.A{a, b}, cond["$in"])
}

func TestParseWhereRejected(t *testing.T) {
	cases := map[string]string{
		"malformed json":      `{"completed":`,
		"unknown field":       `{"priority":"high"}`,
		"unknown operator":    `{"name":{"$regex":".*"}}`,
		"wrong value type":    `{"completed":"yes"}`,
		"bad object id":       `{"assignedUser":"not-a-hex-id"}`,
		"non-array $in":       `{"name":{"$in":"x"}}`,
		"array instead of object": `[1,2,3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := query.Parse(params("where", raw), query.Tasks())
			var bad *query.BadParamError
			require.ErrorAs(t, err, &bad)
			assert.Equal(t, "Invalid where parameter", err.Error())
		})
	}
}

func TestParseSort(t *testing.T) {
	opts, err := query.Parse(params("sort", `{"deadline":1,"name":-1}`), query.Tasks())
	require.NoError(t, err)
	require.Len(t, opts.Sort, 2)
	// key order must survive the round trip
	assert.Equal(t, bson.E{Key: "deadline", Value: 1}, opts.Sort[0])
	assert.Equal(t, bson.E{Key: "name", Value: -1}, opts.Sort[1])

	opts, err = query.Parse(params("sort", `{"dateCreated":"desc"}`), query.Users())
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "dateCreated", Value: -1}}, opts.Sort)
}

func TestParseSortRejected(t *testing.T) {
	for name, raw := range map[string]string{
		"malformed json": `{"deadline":`,
		"unknown field":  `{"priority":1}`,
		"bad direction":  `{"deadline":2}`,
		"string garbage": `{"deadline":"sideways"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := query.Parse(params("sort", raw), query.Tasks())
			var bad *query.BadParamError
			require.ErrorAs(t, err, &bad)
			assert.Equal(t, "Invalid sort parameter", err.Error())
		})
	}
}

func TestParseSelect(t *testing.T) {
	opts, err := query.Parse(params("select", `{"name":1,"deadline":1}`), query.Tasks())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": 1, "deadline": 1}, opts.Projection)

	// _id exclusion may ride along with inclusions
	opts, err = query.Parse(params("select", `{"name":1,"_id":0}`), query.Tasks())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": 1, "_id": 0}, opts.Projection)

	opts, err = query.Parse(params("select", `{"email":0}`), query.Users())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"email": 0}, opts.Projection)
}

func TestParseSelectRejected(t *testing.T) {
	for name, raw := range map[string]string{
		"malformed json":  `{"name":`,
		"unknown field":   `{"priority":1}`,
		"mixed modes":     `{"name":1,"description":0}`,
		"non-numeric":     `{"name":true}`,
		"out of range":    `{"name":2}`,
		"empty object":    `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := query.Parse(params("select", raw), query.Tasks())
			var bad *query.BadParamError
			require.ErrorAs(t, err, &bad)
			assert.Equal(t, "Invalid select parameter", err.Error())
		})
	}
}

func TestParsePagination(t *testing.T) {
	opts, err := query.Parse(params("skip", "20", "limit", "5"), query.Tasks())
	require.NoError(t, err)
	assert.EqualValues(t, 20, opts.Skip)
	assert.EqualValues(t, 5, opts.Limit)

	// garbage and negatives fall back to defaults
	opts, err = query.Parse(params("skip", "-3", "limit", "abc"), query.Tasks())
	require.NoError(t, err)
	assert.EqualValues(t, 0, opts.Skip)
	assert.EqualValues(t, 100, opts.Limit)
}

func TestParseCountIgnoresLimit(t *testing.T) {
	opts, err := query.Parse(params("count", "true", "limit", "2"), query.Tasks())
	require.NoError(t, err)
	assert.True(t, opts.Count)
	assert.EqualValues(t, 0, opts.Limit)

	opts, err = query.Parse(params("count", "false", "limit", "2"), query.Tasks())
	require.NoError(t, err)
	assert.False(t, opts.Count)
	assert.EqualValues(t, 2, opts.Limit)
}

func TestParseSelectHelper(t *testing.T) {
	projection, err := query.ParseSelect(params(), query.Tasks())
	require.NoError(t, err)
	assert.Nil(t, projection)

	projection, err = query.ParseSelect(params("select", `{"name":1}`), query.Tasks())
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": 1}, projection)

	_, err = query.ParseSelect(params("select", `not json`), query.Tasks())
	var bad *query.BadParamError
	require.ErrorAs(t, err, &bad)
}
