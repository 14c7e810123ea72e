package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/internal/utils"
)

// AsyncMiddleware 把请求处理转交给全局协程池
// 并发度收敛到池的 worker 数，超出的请求在队列里排队而不是被拒绝
func AsyncMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.GlobalTaskPool == nil {
			// 池未初始化时降级为同步执行
			c.Next()
			return
		}

		// 提交方阻塞在 done 上，同一时刻只有 worker 在操作 c，
		// 因此跨协程使用 gin.Context 是安全的
		done := make(chan struct{})
		utils.GlobalTaskPool.Submit(func() {
			defer close(done)
			c.Next()
		})
		<-done
	}
}
