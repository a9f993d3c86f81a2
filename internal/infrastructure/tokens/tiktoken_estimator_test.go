package tokens

import (
	"testing"

	"github.com/chatvault/backend/internal/domain/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTiktokenEstimator(t *testing.T) {
	// 测试单例模式
	estimator1, err := GetTiktokenEstimator()
	require.NoError(t, err, "should create estimator without error")
	require.NotNil(t, estimator1, "estimator should not be nil")

	estimator2, err := GetTiktokenEstimator()
	require.NoError(t, err, "should get estimator without error")

	// 确保是同一个实例
	assert.Same(t, estimator1, estimator2, "should return the same instance")
}

func TestTiktokenEstimator_CountTokens(t *testing.T) {
	estimator, err := GetTiktokenEstimator()
	require.NoError(t, err)

	tests := []struct {
		name     string
		text     string
		minCount int // 最小预期 token 数
		maxCount int // 最大预期 token 数
	}{
		{
			name:     "空字符串",
			text:     "",
			minCount: 0,
			maxCount: 0,
		},
		{
			name:     "简单英文",
			text:     "Hello, world!",
			minCount: 3,
			maxCount: 5,
		},
		{
			name:     "简单中文",
			text:     "你好世界",
			minCount: 2,
			maxCount: 8,
		},
		{
			name:     "混合中英文",
			text:     "Hello 你好，这是一个测试 test",
			minCount: 5,
			maxCount: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := estimator.CountTokens(tt.text)
			assert.GreaterOrEqual(t, count, tt.minCount, "token count should be >= minCount")
			assert.LessOrEqual(t, count, tt.maxCount, "token count should be <= maxCount")
		})
	}
}

func TestTiktokenEstimator_CountTurns(t *testing.T) {
	estimator, err := GetTiktokenEstimator()
	require.NoError(t, err)

	response := transcript.NewResponseTurn(false)
	response.Text = "The answer is 42."
	turns := []transcript.Turn{
		transcript.NewPromptTurn("What is the answer?", nil),
		response,
	}

	perTurn, total := estimator.CountTurns(turns)
	require.Len(t, perTurn, 2)

	// 总数等于各轮之和
	var sum int
	for _, c := range perTurn {
		assert.Greater(t, c, 0)
		sum += c
	}
	assert.Equal(t, sum, total)

	// 每轮计数包含标签前缀
	bare := estimator.CountTokens(turns[0].Text)
	assert.Greater(t, perTurn[0], bare, "per-turn count should include the kind label")
}

func TestTiktokenEstimator_Consistency(t *testing.T) {
	estimator, err := GetTiktokenEstimator()
	require.NoError(t, err)

	// 相同文本应该返回相同的 token 数
	text := "This is a test for consistency."
	count1 := estimator.CountTokens(text)
	count2 := estimator.CountTokens(text)

	assert.Equal(t, count1, count2, "token count should be consistent")
}
