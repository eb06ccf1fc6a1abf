// Package analyzer 解析合约随附的JSON Schema消息声明
//
// 🎯 **核心职责**：从合约目录旁的schema/*.json读出各消息类型
// （instantiate/execute/query消息的变体与字段），供REPL在人工
// 输入前展示消息形状。只读视图，核心引擎不依赖本包
package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SchemaFolder 合约文件旁的schema目录名
const SchemaFolder = "schema"

// Member 消息的一个字段
type Member struct {
	Name string // 字段名
	Def  string // 类型描述（可选类型带?后缀，数组为[元素]）
}

// Analyzer 单个合约的消息类型目录
type Analyzer struct {
	// BaseTypes 命名基础类型 → 底层类型（如 Uint128 → string）
	BaseTypes map[string]string

	// Structs 命名结构类型 → 字段名 → 类型描述
	Structs map[string]map[string]string

	// Messages 消息标题 → 变体名 → 字段清单
	// 非枚举消息只有一个与标题同名的变体
	Messages map[string]map[string][]Member

	// Enums 消息标题是否为枚举（anyOf变体集）
	Enums map[string]bool
}

// New 创建空目录
func New() *Analyzer {
	return &Analyzer{
		BaseTypes: make(map[string]string),
		Structs:   make(map[string]map[string]string),
		Messages:  make(map[string]map[string][]Member),
		Enums:     make(map[string]bool),
	}
}

// FromContractFile 装载合约文件旁的schema目录
// 目录缺失不是错误，返回空目录（REPL退化为自由JSON输入）
func FromContractFile(wasmPath string) *Analyzer {
	a := New()
	_ = a.LoadDir(filepath.Join(filepath.Dir(wasmPath), SchemaFolder))
	return a
}

// LoadDir 解析目录下全部*.json schema文件
func (a *Analyzer) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("读取schema目录失败: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := a.analyzeFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// MessageTitles 已装载的消息标题（字典序）
func (a *Analyzer) MessageTitles() []string {
	titles := make([]string, 0, len(a.Messages))
	for title := range a.Messages {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Variants 某消息的变体名（字典序）
func (a *Analyzer) Variants(title string) []string {
	variants := make([]string, 0, len(a.Messages[title]))
	for name := range a.Messages[title] {
		variants = append(variants, name)
	}
	sort.Strings(variants)
	return variants
}

// analyzeFile 解析单个schema文件
// 无title的文件跳过（不是消息声明）
func (a *Analyzer) analyzeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取schema文件失败: %w", err)
	}
	var schema map[string]json.RawMessage
	if err := json.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("解析schema文件%s失败: %w", filepath.Base(path), err)
	}

	var title string
	if raw, ok := schema["title"]; ok {
		_ = json.Unmarshal(raw, &title)
	}
	if title == "" {
		return nil
	}

	// 先收集definitions，变体字段可能引用它们
	if raw, ok := schema["definitions"]; ok {
		a.prepareDefinitions(raw)
	}

	variants := make(map[string][]Member)

	// 普通结构消息：顶层properties即字段
	if raw, ok := schema["properties"]; ok {
		variants[title] = a.buildMembers(raw)
	}

	// 枚举消息：anyOf/oneOf的每个分支是一个变体
	branches, ok := schema["anyOf"]
	if !ok {
		branches = schema["oneOf"]
	}
	if branches != nil {
		a.Enums[title] = true
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(branches, &items); err == nil {
			for _, item := range items {
				name, fields := a.enumVariant(item)
				if name != "" && name != "null" {
					variants[name] = fields
				}
			}
		}
	}

	a.Messages[title] = variants
	return nil
}

// enumVariant 解析枚举的一个分支
// 分支形如 {"required":["transfer"],"properties":{"transfer":{...}}}
func (a *Analyzer) enumVariant(item map[string]json.RawMessage) (string, []Member) {
	var required []string
	if raw, ok := item["required"]; ok {
		_ = json.Unmarshal(raw, &required)
	}
	if len(required) == 0 {
		return "", nil
	}
	name := required[0]

	var props map[string]json.RawMessage
	if raw, ok := item["properties"]; ok {
		_ = json.Unmarshal(raw, &props)
	}
	inner, ok := props[name]
	if !ok {
		return name, nil
	}

	// 变体负载通常又是一层object
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(inner, &payload); err == nil {
		if nested, ok := payload["properties"]; ok {
			return name, a.buildMembers(nested)
		}
	}
	return name, a.buildMembers(inner)
}

// prepareDefinitions 收集definitions为基础类型与结构类型
func (a *Analyzer) prepareDefinitions(raw json.RawMessage) {
	var defs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &defs); err != nil {
		return
	}
	for name, def := range defs {
		typeName, _ := typeNameOf(def)
		if typeName != "object" {
			a.BaseTypes[name] = typeName
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(def, &obj); err != nil {
			continue
		}
		fields := make(map[string]string)
		for _, member := range a.buildMembers(obj["properties"]) {
			fields[member.Name] = member.Def
		}
		a.Structs[name] = fields
	}
}

// buildMembers 把properties对象转换为按名排序的字段清单
func (a *Analyzer) buildMembers(raw json.RawMessage) []Member {
	var props map[string]json.RawMessage
	if raw == nil || json.Unmarshal(raw, &props) != nil {
		return nil
	}
	members := make([]Member, 0, len(props))
	for name, prop := range props {
		if def := memberDef(prop); def != "" {
			members = append(members, Member{Name: name, Def: def})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members
}

// memberDef 计算一个字段的类型描述
func memberDef(prop json.RawMessage) string {
	typeName, optional := typeNameOf(prop)
	if typeName == "" {
		return ""
	}

	def := typeName
	if typeName == "array" {
		item := arrayItemType(prop)
		if item == "" {
			return ""
		}
		def = "[" + item + "]"
	} else if strings.HasPrefix(typeName, "#/definitions/") {
		def = shortName(typeName)
	}
	if optional {
		def += "?"
	}
	return def
}

// typeNameOf 解析一个schema节点的类型名
// 依次尝试 type / allOf[0].$ref / anyOf[0].$ref / $ref；
// ["T","null"]与anyOf形式标记为可选
func typeNameOf(raw json.RawMessage) (string, bool) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(raw, &node); err != nil {
		return "", false
	}

	optional := false
	target := node
	if _, hasType := node["type"]; !hasType {
		wrapped := node["allOf"]
		if wrapped == nil {
			if anyOf, ok := node["anyOf"]; ok {
				wrapped = anyOf
				optional = true
			}
		}
		if wrapped != nil {
			var arr []json.RawMessage
			if err := json.Unmarshal(wrapped, &arr); err == nil && len(arr) > 0 {
				var first map[string]json.RawMessage
				if err := json.Unmarshal(arr[0], &first); err == nil {
					target = first
				}
			}
		}
		if ref, ok := target["$ref"]; ok {
			var s string
			if err := json.Unmarshal(ref, &s); err == nil {
				return s, optional
			}
		}
	}

	typeRaw, ok := target["type"]
	if !ok {
		return "any", optional
	}
	var s string
	if err := json.Unmarshal(typeRaw, &s); err == nil {
		return s, optional
	}
	// ["string","null"] 形式
	var arr []string
	if err := json.Unmarshal(typeRaw, &arr); err == nil && len(arr) > 0 {
		return arr[0], true
	}
	return "any", optional
}

// arrayItemType 数组字段的元素类型
func arrayItemType(prop json.RawMessage) string {
	var node struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(prop, &node); err != nil || node.Items == nil {
		return ""
	}
	var item struct {
		Ref  string `json:"$ref"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(node.Items, &item); err != nil {
		return ""
	}
	if item.Ref != "" {
		return shortName(item.Ref)
	}
	return item.Type
}

// shortName #/definitions/Foo → Foo
func shortName(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}
