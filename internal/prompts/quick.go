// Package prompts holds the built-in starter prompts offered next to the
// prompt box.
package prompts

var quick = []string{
	"向我解释量子纠缠，就像我五岁一样",
	"写一个关于赛博朋克城市的短篇故事开头",
	"分析远程工作的利弊",
	"如何用 Python 实现快速排序？",
	"给一封拒绝加薪申请的邮件写个草稿",
	"为一家新的咖啡店想5个独特的口号",
}

// Quick returns a copy of the built-in prompts in display order.
func Quick() []string {
	return append([]string(nil), quick...)
}
