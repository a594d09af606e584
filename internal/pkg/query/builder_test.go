package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_BasicSelect(t *testing.T) {
	stmt := From("products").
		Select("sku", "name", "price").
		Build()

	assert.Equal(t, "SELECT sku, name, price FROM products", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_SelectAllColumns(t *testing.T) {
	stmt := From("shops").Build()

	assert.Equal(t, "SELECT * FROM shops", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_UnsyncedProducts(t *testing.T) {
	stmt := From("products").
		Select("sku", "name").
		Where(IsNull("synced_at")).
		OrderBy("updated_at", Asc).
		Build()

	assert.Equal(t, "SELECT sku, name FROM products WHERE synced_at IS NULL ORDER BY updated_at ASC", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_StaleJobs(t *testing.T) {
	cutoff := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stmt := From("sync_jobs").
		Select("job_id").
		Where(Eq("status", "active")).
		Where(Lt("heartbeat_at", cutoff)).
		Build()

	assert.Equal(t, "SELECT job_id FROM sync_jobs WHERE status = @p0 AND heartbeat_at < @p1", stmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"p0": "active",
		"p1": cutoff,
	}, stmt.Params)
}

func TestBuilder_UseIndex(t *testing.T) {
	stmt := From("chat_messages").
		UseIndex("chat_messages_by_time").
		Select("message_id").
		Where(Eq("chat_id", "c1")).
		OrderBy("sent_at", Desc).
		Limit(1000).
		Build()

	assert.Equal(t, "SELECT message_id FROM chat_messages@{FORCE_INDEX=chat_messages_by_time} WHERE chat_id = @p0 ORDER BY sent_at DESC LIMIT @limit", stmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"p0":    "c1",
		"limit": int64(1000),
	}, stmt.Params)
}

func TestBuilder_LimitAndOffset(t *testing.T) {
	stmt := From("sync_jobs").
		Select("job_id").
		Limit(10).
		Offset(20).
		Build()

	assert.Equal(t, "SELECT job_id FROM sync_jobs LIMIT @limit OFFSET @offset", stmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"limit":  int64(10),
		"offset": int64(20),
	}, stmt.Params)
}

func TestBuilder_Count(t *testing.T) {
	builder := From("sync_jobs").
		UseIndex("sync_jobs_by_status").
		Select("job_id", "status").
		Where(Eq("status", "pending")).
		OrderBy("created_at", Desc).
		Limit(50)

	countStmt := builder.Count().Build()
	assert.Equal(t, "SELECT COUNT(*) FROM sync_jobs@{FORCE_INDEX=sync_jobs_by_status} WHERE status = @p0", countStmt.SQL)
	assert.Equal(t, map[string]interface{}{"p0": "pending"}, countStmt.Params)

	// original builder is unchanged
	assert.Contains(t, builder.Build().SQL, "LIMIT @limit")
}

func TestBuilder_Immutability(t *testing.T) {
	base := From("chat_watches").Select("chat_id")

	stmt1 := base.Where(Eq("shop_name", "tienda")).Build()
	stmt2 := base.Where(IsNull("last_processed_message_id")).OrderBy("chat_id", Asc).Build()

	assert.Contains(t, stmt1.SQL, "shop_name = @p0")
	assert.NotContains(t, stmt1.SQL, "last_processed_message_id")
	assert.NotContains(t, stmt1.SQL, "ORDER BY")

	assert.Contains(t, stmt2.SQL, "last_processed_message_id IS NULL")
	assert.NotContains(t, stmt2.SQL, "shop_name")
}

func TestBuilder_OrderByTieBreak(t *testing.T) {
	stmt := From("chat_messages").
		UseIndex("chat_messages_by_time").
		Select("message_id").
		Where(Eq("chat_id", "c1")).
		OrderBy("sent_at", Desc).
		OrderBy("seq", Desc).
		Limit(10).
		Build()

	assert.Equal(t,
		"SELECT message_id FROM chat_messages@{FORCE_INDEX=chat_messages_by_time} WHERE chat_id = @p0 ORDER BY sent_at DESC, seq DESC LIMIT @limit",
		stmt.SQL)
}

func TestCondition_ParamIndex(t *testing.T) {
	sql, params := Eq("shop_name", "tienda").SQL(5)
	assert.Equal(t, "shop_name = @p5", sql)
	assert.Equal(t, map[string]interface{}{"p5": "tienda"}, params)

	sql, params = Lt("finished_at", "x").SQL(2)
	assert.Equal(t, "finished_at < @p2", sql)
	assert.Equal(t, map[string]interface{}{"p2": "x"}, params)
}

func TestBuilder_String(t *testing.T) {
	str := From("products").
		Select("sku").
		Where(Eq("source_chat_id", "c1")).
		String()

	require.NotEmpty(t, str)
	assert.Contains(t, str, "SQL:")
	assert.Contains(t, str, "Params:")
}
