// Package tokens 提供转写内容的 Token 估算
package tokens

import (
	"sync"

	"github.com/chatvault/backend/internal/domain/transcript"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TiktokenEstimator 使用 tiktoken 精确估算 Token 数量
type TiktokenEstimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// tiktokenInstance 单例实例
var (
	tiktokenInstance *TiktokenEstimator
	tiktokenOnce     sync.Once
	tiktokenErr      error
)

// GetTiktokenEstimator 获取 TiktokenEstimator 单例
// 使用单例模式避免重复加载编码文件
func GetTiktokenEstimator() (*TiktokenEstimator, error) {
	tiktokenOnce.Do(func() {
		// 使用 cl100k_base 编码（GPT-4、Claude 等模型兼容）
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			tiktokenErr = err
			return
		}
		tiktokenInstance = &TiktokenEstimator{
			encoding: enc,
		}
	})

	if tiktokenErr != nil {
		return nil, tiktokenErr
	}
	return tiktokenInstance, nil
}

// CountTokens 计算文本的 Token 数量
func (e *TiktokenEstimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// CountTurns 计算每轮的 Token 数量和总数
// 每轮按"标签 + 文本"计数，与展示给模型的内容保持一致
func (e *TiktokenEstimator) CountTurns(turns []transcript.Turn) (perTurn []int, total int) {
	perTurn = make([]int, len(turns))
	for i, turn := range turns {
		count := e.CountTokens(turn.KindLabel() + turn.Text)
		perTurn[i] = count
		total += count
	}
	return perTurn, total
}

// GetMethod 返回计算方法标识
func (e *TiktokenEstimator) GetMethod() string {
	return "tiktoken"
}
