// Package repl 面向终端的合约交互会话
//
// 🎯 **核心职责**：在终端里驱动模拟引擎——选择合约与调用类型、
// 输入JSON消息、展示属性与gas消耗。非TTY环境自动退化为按行
// 读取的文本模式，便于脚本化冒烟测试
package repl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/weisyn/wasmsim/internal/cli/analyzer"
	"github.com/weisyn/wasmsim/internal/core/engine"
)

// 会话菜单项
const (
	actionInstantiate = "🚀 instantiate - 初始化合约状态"
	actionExecute     = "⚙️ execute - 执行合约交易"
	actionQuery       = "🔍 query - 只读查询合约"
	actionSchema      = "📋 查看消息格式"
	actionContract    = "🔄 切换合约"
	actionAccount     = "👤 切换调用账户"
	actionExit        = "🚪 退出"
)

// Session 合约交互会话
type Session struct {
	engine   *engine.Engine
	schemas  map[string]*analyzer.Analyzer // 合约地址 → 消息目录
	logger   *zap.SugaredLogger
	contract string
	account  string
}

// New 创建会话，默认选中第一个合约与默认账户
func New(eng *engine.Engine, schemas map[string]*analyzer.Analyzer, logger *zap.SugaredLogger) (*Session, error) {
	addrs := eng.Addresses()
	if len(addrs) == 0 {
		return nil, fmt.Errorf("没有已装载的合约")
	}
	account, err := eng.DefaultAccount()
	if err != nil {
		return nil, err
	}
	return &Session{
		engine:   eng,
		schemas:  schemas,
		logger:   logger,
		contract: addrs[0],
		account:  account,
	}, nil
}

// Run 主循环，直到用户退出或context取消
func (s *Session) Run(ctx context.Context) error {
	pterm.DefaultBox.WithTitle("合约模拟器").WithTitleTopCenter().Printfln(
		"合约: %s\n账户: %s", s.contract, s.account)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		action, err := s.selectAction()
		if err != nil {
			return err
		}

		switch action {
		case actionInstantiate:
			s.runCall(ctx, engine.KindInstantiate)
		case actionExecute:
			s.runCall(ctx, engine.KindExecute)
		case actionQuery:
			s.runQuery(ctx)
		case actionSchema:
			s.showSchemas()
		case actionContract:
			s.switchContract()
		case actionAccount:
			s.switchAccount()
		case actionExit:
			pterm.Info.Println("会话结束")
			return nil
		}
	}
}

// selectAction 选择下一步操作
func (s *Session) selectAction() (string, error) {
	options := []string{
		actionInstantiate,
		actionExecute,
		actionQuery,
		actionSchema,
		actionContract,
		actionAccount,
		actionExit,
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return s.readLineAction()
	}
	return pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithDefaultOption(options[1]).
		WithMaxHeight(8).
		WithFilter(false).
		Show(fmt.Sprintf("📋 [%s] 请选择操作：", s.contract))
}

// readLineAction 非TTY退化模式：按序号或关键字读一行
func (s *Session) readLineAction() (string, error) {
	fmt.Println("可用操作: instantiate | execute | query | schema | contract | account | exit")
	var input string
	if _, err := fmt.Scanln(&input); err != nil {
		return actionExit, nil
	}
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "instantiate", "init":
		return actionInstantiate, nil
	case "execute", "handle":
		return actionExecute, nil
	case "query":
		return actionQuery, nil
	case "schema":
		return actionSchema, nil
	case "contract":
		return actionContract, nil
	case "account":
		return actionAccount, nil
	default:
		return actionExit, nil
	}
}

// runCall 执行instantiate/execute调用并展示结果
func (s *Session) runCall(ctx context.Context, kind engine.CallKind) {
	msg, ok := s.readMessage(string(kind))
	if !ok {
		return
	}

	outcome, err := s.engine.Call(ctx, kind, s.contract, msg, s.account)
	if err != nil {
		pterm.Error.Printfln("调用失败: %v", err)
		return
	}

	pterm.Success.Printfln("✅ %s 完成，gas消耗 %d", kind, outcome.GasUsed)
	if outcome.Data != "" {
		pterm.Info.Printfln("返回数据: %s", outcome.Data)
	}
	if len(outcome.Attributes) > 0 {
		rows := pterm.TableData{{"Key", "Value"}}
		for _, attr := range outcome.Attributes {
			rows = append(rows, []string{attr.Key, attr.Value})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}
}

// runQuery 只读查询，不推进高度
// 与instantiate/execute一样走加锁的Call入口，与监视器的
// 热重载保持互斥
func (s *Session) runQuery(ctx context.Context) {
	msg, ok := s.readMessage("query")
	if !ok {
		return
	}
	outcome, err := s.engine.Call(ctx, engine.KindQuery, s.contract, msg, s.account)
	if err != nil {
		pterm.Error.Printfln("查询失败: %v", err)
		return
	}
	pterm.Success.Printfln("✅ 查询结果: %s (gas消耗 %d)", outcome.Data, outcome.GasUsed)
}

// readMessage 读取并校验一条JSON消息
func (s *Session) readMessage(prompt string) ([]byte, bool) {
	var input string
	var err error
	if term.IsTerminal(int(os.Stdin.Fd())) {
		input, err = pterm.DefaultInteractiveTextInput.
			Show(fmt.Sprintf("请输入%s消息(JSON)", prompt))
	} else {
		fmt.Printf("%s消息(JSON): ", prompt)
		reader := json.NewDecoder(os.Stdin)
		var raw json.RawMessage
		if derr := reader.Decode(&raw); derr != nil {
			err = derr
		} else {
			input = string(raw)
		}
	}
	if err != nil {
		pterm.Error.Printfln("读取输入失败: %v", err)
		return nil, false
	}

	input = strings.TrimSpace(input)
	if !json.Valid([]byte(input)) {
		pterm.Error.Println("⚠️ 输入不是合法JSON")
		return nil, false
	}
	return []byte(input), true
}

// showSchemas 展示当前合约的消息格式目录
func (s *Session) showSchemas() {
	a := s.schemas[s.contract]
	if a == nil || len(a.Messages) == 0 {
		pterm.Info.Println("该合约未提供schema目录")
		return
	}
	for _, title := range a.MessageTitles() {
		rows := pterm.TableData{{"变体", "字段", "类型"}}
		for _, variant := range a.Variants(title) {
			members := a.Messages[title][variant]
			if len(members) == 0 {
				rows = append(rows, []string{variant, "-", "-"})
				continue
			}
			for _, m := range members {
				rows = append(rows, []string{variant, m.Name, m.Def})
			}
		}
		pterm.DefaultBox.WithTitle(title).WithTitleTopCenter().Println("")
		_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}
}

// switchContract 在已装载的合约之间切换
func (s *Session) switchContract() {
	addrs := s.engine.Addresses()
	sort.Strings(addrs)
	if len(addrs) < 2 {
		pterm.Info.Println("当前只有一个合约")
		return
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("合约列表:", strings.Join(addrs, " "))
		var input string
		if _, err := fmt.Scanln(&input); err == nil {
			s.setContract(strings.TrimSpace(input), addrs)
		}
		return
	}
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(addrs).
		WithDefaultOption(s.contract).
		Show("选择合约")
	if err != nil {
		pterm.Error.Printfln("选择失败: %v", err)
		return
	}
	s.setContract(choice, addrs)
}

func (s *Session) setContract(choice string, addrs []string) {
	for _, addr := range addrs {
		if addr == choice {
			s.contract = choice
			pterm.Info.Printfln("已切换到合约 %s", choice)
			return
		}
	}
	pterm.Error.Printfln("未知合约: %s", choice)
}

// switchAccount 切换调用账户（地址自由输入，余额不足时调用会报错）
func (s *Session) switchAccount() {
	var input string
	var err error
	if term.IsTerminal(int(os.Stdin.Fd())) {
		input, err = pterm.DefaultInteractiveTextInput.
			WithDefaultValue(s.account).
			Show("请输入调用账户地址")
	} else {
		_, err = fmt.Scanln(&input)
	}
	if err != nil {
		pterm.Error.Printfln("读取输入失败: %v", err)
		return
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}
	s.account = input
	pterm.Info.Printfln("当前账户: %s", s.account)
}
