package meeting

import "github.com/meetinsight/meeting-insight/internal/model"

var actionKeywords = []string{"负责", "完成", "需要", "处理", "安排", "工作", "任务", "执行", "跟进", "进度"}

var complaintKeywords = []string{"问题", "困难", "挑战", "不足", "缺点", "缺陷", "失误", "错误", "抱怨", "投诉", "不满"}

var (
	performanceKeywords = []string{"表演", "展示", "呈现", "表现", "演出", "做秀", "演示"}
	shieldKeywords      = []string{"流程", "规定", "政策", "原则", "按照", "依据", "根据", "规范", "制度"}
	washKeywords        = []string{"检讨", "反思", "总结", "回顾", "评估", "分析", "反省", "检视"}
	delayKeywords       = []string{"改进", "完善", "优化", "提升", "加强", "下一步", "后续", "未来", "计划"}
)

// DefaultManagers lists the managers scored on every analysis.
func DefaultManagers() []model.Manager {
	return []model.Manager{
		{Name: "Mark", Title: "PM处长", Responsibilities: []string{"项目规划", "资源分配", "进度控制"}},
		{Name: "Eric", Title: "DM/Project Leader", Responsibilities: []string{"项目执行", "团队协调", "技术指导"}},
		{Name: "Chester", Title: "客诉PM课长", Responsibilities: []string{"客户投诉处理", "品质问题追踪", "客户关系维护"}},
		{Name: "David", Title: "GQAM Dell品质保证负责人", Responsibilities: []string{"品质标准制定", "品质检验", "供应商品质管理"}},
	}
}

// DefaultCustomers lists the built-in customer contacts.
func DefaultCustomers() []model.Customer {
	return []model.Customer{
		{Name: "YungSen", Company: "YungSen Corp", Title: "客户代表"},
		{Name: "adline", Company: "adline Inc", Title: "技术经理"},
		{Name: "Philp", Company: "Philp Industries", Title: "项目负责人"},
	}
}
