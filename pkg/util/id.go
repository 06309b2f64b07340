package util

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	snowNode *snowflake.Node
	snowOnce sync.Once
)

// NewUserUUID 生成用户 uuid（snowflake，base58 编码后不超过 20 位）。
// 节点编号从 NODE_ID 读取，单机部署默认 1。
func NewUserUUID() string {
	snowOnce.Do(func() {
		nodeID := int64(1)
		if v := os.Getenv("NODE_ID"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				nodeID = n
			}
		}
		node, err := snowflake.NewNode(nodeID)
		if err != nil {
			// 节点编号非法时回退到 1，保证 id 生成可用
			node, _ = snowflake.NewNode(1)
		}
		snowNode = node
	})
	return snowNode.Generate().Base58()
}
