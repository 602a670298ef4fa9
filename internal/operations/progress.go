package operations

// ProgressFunc receives free-form human-readable status text between stages.
// The pipeline may invoke it from a non-UI goroutine; marshaling back to a UI
// context is the caller's responsibility.
type ProgressFunc func(message string)

// Pipeline stage identifiers, used for spans and log records.
const (
	StageReadSubscription = "read_subscription"
	StageClassify         = "classify_subscription"
	StageReadLedger       = "read_ledger"
	StageAnalyzeLedger    = "analyze_ledger"
	StageSummarize        = "summarize_customers"
	StageAssemble         = "assemble_report"
	StageSplit            = "split_departments"
)

// Operator-facing status text, emitted through the progress callback.
const (
	StatusReadSubscription = "开始读取海运订阅文件..."
	StatusClassify         = "处理海运订阅数据..."
	StatusReadLedger       = "读取预对账文件..."
	StatusAnalyzeLedger    = "分析数据中..."
	StatusAssemble         = "生成分析报表..."
	StatusSplitStart       = "开始拆分部门报表..."
	StatusSplitDone        = "部门报表拆分完成"
)
