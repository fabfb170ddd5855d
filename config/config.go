package config

// Initialize 触发本包各配置文件的 init 注册
//
// main 包匿名导入本包即可完成全部配置项的注册，
// 真正的读取发生在 config.InitConfig 之后。
func Initialize() {
}
