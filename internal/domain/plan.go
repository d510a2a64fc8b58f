package domain

// 目标根目录下的四个顶层分桶。
const (
	BucketPhotos      = "Photos"
	BucketVideos      = "Videos"
	BucketNonMedia    = "NonMedia"
	BucketUnknownDate = "UnknownDate"
)

// DestPlan 规划一个文件在目标根目录下的落点（只描述路径；真正移动由驱动层执行）。
//
// 不变量：
// - RelDst 永远不会指向目标根目录之外（恶意/畸形相对路径会被剥离为纯文件名）
// - 最终确定的 RelDst 在一次 run 内唯一，且在 organize 模式下不与磁盘上已存在的文件冲突
type DestPlan struct {
	Bucket string // Photos | Videos | NonMedia | UnknownDate
	RelDst string // 相对目标根目录的完整相对路径（含文件名）
}
