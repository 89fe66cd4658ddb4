// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package atf

import (
	"fmt"
	"strconv"

	"gopkg.microglot.org/atf.go/internal/exc"
	"gopkg.microglot.org/atf.go/internal/idl"
	"gopkg.microglot.org/atf.go/tree"
)

// symbol identifies a grammar symbol. Terminals share their value with
// idl.TokenType. Non-terminals start at ntBase.
type symbol int

const ntBase symbol = 1 << 10

const (
	ntStart symbol = ntBase + iota
	ntFile
	ntHeader
	ntVersion
	ntStatements
	ntStatement
	ntFiles
	ntFiledefs
	ntFiledef
	ntInclude
	ntIdentifiers
	ntApplElem
	ntApplAttrs
	ntApplAttr
	ntAttrs
	ntAttr
	ntIdAttr
	ntCardinality
	ntDatatype
	ntInstElem
	ntAttributeValues
	ntAttributeValue
	ntDataAttributeValues
	ntDval
	ntComp
	ntCompType
	ntInts
	ntPrim
	ntPrims
)

var ntNames = map[symbol]string{
	ntStart:               "start",
	ntFile:                "file",
	ntHeader:              "header",
	ntVersion:             "version",
	ntStatements:          "statements",
	ntStatement:           "statement",
	ntFiles:               "files",
	ntFiledefs:            "filedefs",
	ntFiledef:             "filedef",
	ntInclude:             "include",
	ntIdentifiers:         "identifiers",
	ntApplElem:            "applelem",
	ntApplAttrs:           "applattrs",
	ntApplAttr:            "applattr",
	ntAttrs:               "attrs",
	ntAttr:                "attr",
	ntIdAttr:              "idattr",
	ntCardinality:         "cardinality",
	ntDatatype:            "datatype",
	ntInstElem:            "instelem",
	ntAttributeValues:     "attribute_values",
	ntAttributeValue:      "attribute_value",
	ntDataAttributeValues: "data_attribute_values",
	ntDval:                "dval",
	ntComp:                "comp",
	ntCompType:            "comp_type",
	ntInts:                "ints",
	ntPrim:                "prim",
	ntPrims:               "prims",
}

const symEOF = symbol(idl.TokenTypeEOF)

func term(t idl.TokenType) symbol {
	return symbol(t)
}

func (s symbol) isTerminal() bool {
	return s < ntBase
}

func (s symbol) String() string {
	if s.isTerminal() {
		return idl.TokenType(s).String()
	}
	if name, ok := ntNames[s]; ok {
		return name
	}
	return fmt.Sprintf("symbol(%d)", int(s))
}

// pair is one (key, value) entry of a list that later becomes a mapping.
type pair struct {
	key  string
	node tree.Node
}

// value is the semantic value stored on the parse stack next to each state.
// Exactly one field is meaningful for any given symbol.
type value struct {
	token  *idl.Token
	node   tree.Node
	pairs  []pair
	header *tree.Header
	result *tree.Result
}

// actionError is returned by semantic actions. The driver turns it into an
// exception located at the offending token.
type actionError struct {
	code    string
	message string
	at      *idl.Token
}

func (e *actionError) Error() string {
	return e.message
}

type productionKind uint8

const (
	prodStart productionKind = iota
	prodFile
	prodFileEmpty
	prodHeader
	prodHeaderLabel
	prodVersion
	prodStatementsFirst
	prodStatementsNext
	prodStatement
	prodFiles
	prodFiledefsFirst
	prodFiledefsNext
	prodFiledef
	prodInclude
	prodIdentifiersFirst
	prodIdentifiersNext
	prodApplElem
	prodApplElemEmpty
	prodApplAttrsFirst
	prodApplAttrsNext
	prodApplAttr
	prodAttrsFirst
	prodAttrsNext
	prodAttrCardinality
	prodAttrDatatype
	prodAttrIdentifier
	prodAttrLength
	prodAttrFlag
	prodIdAttr
	prodCardinality
	prodCardinalityMany
	prodDatatype
	prodInstElem
	prodInstElemEmpty
	prodAttributeValuesFirst
	prodAttributeValuesNext
	prodAttributeValue
	prodDataAttributeValuesTyped
	prodDataAttributeValues
	prodDvalPrim
	prodDvalPrims
	prodDvalUndefined
	prodDvalComponent
	prodCompString
	prodCompNumeric
	prodCompBlob
	prodCompType
	prodIntsFirst
	prodIntsNext
	prodPrimBool
	prodPrimFloat
	prodPrimInteger
	prodPrimString
	prodPrimsFirst
	prodPrimsNext
)

// production is one rule of the grammar. The action receives the semantic
// values of the right hand side and produces the value of the left hand side.
type production struct {
	kind   productionKind
	lhs    symbol
	rhs    []symbol
	action func(args []value) (value, error)
}

func (p production) String() string {
	out := p.lhs.String() + " :"
	for _, s := range p.rhs {
		out = out + " " + s.String()
	}
	return out
}

var datatypes = []idl.TokenType{
	idl.TokenTypeDTBlob,
	idl.TokenTypeDTBoolean,
	idl.TokenTypeDTByte,
	idl.TokenTypeDTByteStr,
	idl.TokenTypeDTComplex,
	idl.TokenTypeDTDate,
	idl.TokenTypeDTDComplex,
	idl.TokenTypeDTDouble,
	idl.TokenTypeDTEnum,
	idl.TokenTypeDTExternalReference,
	idl.TokenTypeDTLong,
	idl.TokenTypeDTLongLong,
	idl.TokenTypeDTFloat,
	idl.TokenTypeDTShort,
	idl.TokenTypeDTString,
	idl.TokenTypeDTUnknown,
	idl.TokenTypeDSString,
}

var (
	tATFFile      = term(idl.TokenTypeKeywordATFFile)
	tATFEnd       = term(idl.TokenTypeKeywordATFEnd)
	tFiles        = term(idl.TokenTypeKeywordFiles)
	tEndFiles     = term(idl.TokenTypeKeywordEndFiles)
	tComponent    = term(idl.TokenTypeKeywordComponent)
	tEndComponent = term(idl.TokenTypeKeywordEndComponent)
	tApplElem     = term(idl.TokenTypeKeywordApplElem)
	tEndApplElem  = term(idl.TokenTypeKeywordEndApplElem)
	tApplAttr     = term(idl.TokenTypeKeywordApplAttr)
	tInstElem     = term(idl.TokenTypeKeywordInstElem)
	tEndInstElem  = term(idl.TokenTypeKeywordEndInstElem)
	tInclude      = term(idl.TokenTypeKeywordInclude)
	tUndefined    = term(idl.TokenTypeKeywordUndefined)
	tBaseType     = term(idl.TokenTypeKeywordBaseType)
	tBaseAttr     = term(idl.TokenTypeKeywordBaseAttr)
	tRefTo        = term(idl.TokenTypeKeywordRefTo)
	tRefType      = term(idl.TokenTypeKeywordRefType)
	tCardinality  = term(idl.TokenTypeKeywordCardinality)
	tDatatype     = term(idl.TokenTypeKeywordDatatype)
	tMany         = term(idl.TokenTypeKeywordMany)
	tObligatory   = term(idl.TokenTypeKeywordObligatory)
	tUnique       = term(idl.TokenTypeKeywordUnique)
	tAutogenerate = term(idl.TokenTypeKeywordAutogenerate)
	tType         = term(idl.TokenTypeKeywordType)
	tLength       = term(idl.TokenTypeKeywordLength)
	tIniOffset    = term(idl.TokenTypeKeywordIniOffset)
	tBlockSize    = term(idl.TokenTypeKeywordBlockSize)
	tValPerBlock  = term(idl.TokenTypeKeywordValPerBlock)
	tValOffsets   = term(idl.TokenTypeKeywordValOffsets)
	tDescription  = term(idl.TokenTypeKeywordDescription)
	tIdentifier   = term(idl.TokenTypeIdentifier)
	tInteger      = term(idl.TokenTypeInteger)
	tFloat        = term(idl.TokenTypeFloat)
	tString       = term(idl.TokenTypeString)
	tBool         = term(idl.TokenTypeBool)
	tVersion      = term(idl.TokenTypeVersion)
	tComma        = term(idl.TokenTypeComma)
	tSemicolon    = term(idl.TokenTypeSemicolon)
	tEqual        = term(idl.TokenTypeEqual)
)

func rule(kind productionKind, lhs symbol, action func([]value) (value, error), rhs ...symbol) production {
	return production{kind: kind, lhs: lhs, rhs: rhs, action: action}
}

// newProductions returns the ATF grammar. Production 0 is the start rule.
func newProductions() []production {
	ps := []production{
		rule(prodStart, ntStart, passFirst, ntFile),
		rule(prodFile, ntFile, reduceFile, ntHeader, ntStatements, tATFEnd, tSemicolon),
		rule(prodFileEmpty, ntFile, reduceFileEmpty, ntHeader, tATFEnd, tSemicolon),
		rule(prodHeader, ntHeader, reduceHeader, tATFFile, ntVersion, tSemicolon),
		rule(prodHeaderLabel, ntHeader, reduceHeaderLabel, tATFFile, tString, ntVersion, tSemicolon),
		rule(prodVersion, ntVersion, passFirst, tVersion),
		rule(prodVersion, ntVersion, passFirst, tFloat),
		rule(prodVersion, ntVersion, passFirst, tInteger),

		rule(prodStatementsFirst, ntStatements, reduceStatementsFirst, ntStatement, tSemicolon),
		rule(prodStatementsNext, ntStatements, reduceStatementsNext, ntStatements, ntStatement, tSemicolon),
		rule(prodStatement, ntStatement, passFirst, ntFiles),
		rule(prodStatement, ntStatement, passFirst, ntInclude),
		rule(prodStatement, ntStatement, passFirst, ntApplElem),
		rule(prodStatement, ntStatement, passFirst, ntInstElem),

		rule(prodFiles, ntFiles, reduceFiles, tFiles, ntFiledefs, tEndFiles),
		rule(prodFiledefsFirst, ntFiledefs, passFirst, ntFiledef),
		rule(prodFiledefsNext, ntFiledefs, concatPairs, ntFiledefs, ntFiledef),
		rule(prodFiledef, ntFiledef, reduceFiledef, tComponent, tIdentifier, tEqual, tString, tSemicolon),

		rule(prodInclude, ntInclude, reduceInclude, tInclude, ntIdentifiers),
		rule(prodIdentifiersFirst, ntIdentifiers, reduceListFirst, tIdentifier),
		rule(prodIdentifiersNext, ntIdentifiers, reduceListNext, ntIdentifiers, tComma, tIdentifier),

		rule(prodApplElem, ntApplElem, reduceApplElem, tApplElem, tIdentifier, tComma, tBaseType, tIdentifier, ntApplAttrs, tEndApplElem),
		rule(prodApplElemEmpty, ntApplElem, reduceApplElemEmpty, tApplElem, tIdentifier, tComma, tBaseType, tIdentifier, tEndApplElem),
		rule(prodApplAttrsFirst, ntApplAttrs, passFirst, ntApplAttr),
		rule(prodApplAttrsNext, ntApplAttrs, reduceApplAttrsNext, ntApplAttrs, ntApplAttr),
		rule(prodApplAttr, ntApplAttr, reduceApplAttr, tApplAttr, tIdentifier, tComma, ntAttrs, tSemicolon),
		rule(prodAttrsFirst, ntAttrs, passFirst, ntAttr),
		rule(prodAttrsNext, ntAttrs, reduceAttrsNext, ntAttrs, tComma, ntAttr),
		rule(prodAttrCardinality, ntAttr, reduceKeyword, tCardinality, ntCardinality),
		rule(prodAttrDatatype, ntAttr, reduceKeyword, tDatatype, ntDatatype),
		rule(prodAttrIdentifier, ntAttr, reduceKeyword, ntIdAttr, tIdentifier),
		rule(prodAttrLength, ntAttr, reduceKeyword, tLength, tInteger),
		rule(prodAttrFlag, ntAttr, reduceFlag, tObligatory),
		rule(prodAttrFlag, ntAttr, reduceFlag, tUnique),
		rule(prodAttrFlag, ntAttr, reduceFlag, tAutogenerate),
		rule(prodIdAttr, ntIdAttr, passFirst, tBaseType),
		rule(prodIdAttr, ntIdAttr, passFirst, tBaseAttr),
		rule(prodIdAttr, ntIdAttr, passFirst, tRefTo),
		rule(prodIdAttr, ntIdAttr, passFirst, tRefType),
		rule(prodCardinality, ntCardinality, reduceCardinality, tInteger, tComma, tInteger),
		rule(prodCardinalityMany, ntCardinality, reduceCardinality, tInteger, tComma, tMany),

		rule(prodInstElem, ntInstElem, reduceInstElem, tInstElem, tIdentifier, ntAttributeValues, tEndInstElem),
		rule(prodInstElemEmpty, ntInstElem, reduceInstElemEmpty, tInstElem, tIdentifier, tEndInstElem),
		rule(prodAttributeValuesFirst, ntAttributeValues, passFirst, ntAttributeValue),
		rule(prodAttributeValuesNext, ntAttributeValues, concatPairs, ntAttributeValues, ntAttributeValue),
		rule(prodAttributeValue, ntAttributeValue, reduceAttributeValue, tIdentifier, tEqual, ntDataAttributeValues),
		rule(prodDataAttributeValuesTyped, ntDataAttributeValues, reduceTypedValue, ntDatatype, tComma, ntDval),
		rule(prodDataAttributeValues, ntDataAttributeValues, passFirst, ntDval),
		rule(prodDvalPrim, ntDval, passFirst, ntPrim, tSemicolon),
		rule(prodDvalPrims, ntDval, passFirst, ntPrims, tSemicolon),
		rule(prodDvalUndefined, ntDval, reduceUndefined, tUndefined, tSemicolon),
		rule(prodDvalComponent, ntDval, reduceComponent, tComponent, tIdentifier, tComma, ntComp, tEndComponent, tSemicolon),

		rule(prodCompString, ntComp, reduceCompFields,
			tType, ntCompType, tComma, tLength, tInteger, tComma, tIniOffset, tInteger, tSemicolon),
		rule(prodCompNumeric, ntComp, reduceCompFields,
			tType, ntCompType, tComma, tLength, tInteger, tComma, tIniOffset, tInteger, tComma,
			tBlockSize, tInteger, tComma, tValPerBlock, tInteger, tComma, tValOffsets, ntInts, tSemicolon),
		rule(prodCompBlob, ntComp, reduceCompFields,
			tType, ntCompType, tComma, tLength, tInteger, tComma, tIniOffset, tInteger, tComma,
			tDescription, tString, tSemicolon),
		rule(prodCompType, ntCompType, passFirst, ntDatatype),
		rule(prodCompType, ntCompType, reduceIdentifier, tIdentifier),
		rule(prodIntsFirst, ntInts, reduceListFirst, tInteger),
		rule(prodIntsNext, ntInts, reduceListNext, ntInts, tComma, tInteger),

		rule(prodPrimBool, ntPrim, reduceScalar, tBool),
		rule(prodPrimFloat, ntPrim, reduceScalar, tFloat),
		rule(prodPrimInteger, ntPrim, reduceScalar, tInteger),
		rule(prodPrimString, ntPrim, reduceScalar, tString),
		rule(prodPrimsFirst, ntPrims, reducePrimsFirst, ntPrim, tComma, ntPrim),
		rule(prodPrimsNext, ntPrims, reducePrimsNext, ntPrims, tComma, ntPrim),
	}
	for _, dt := range datatypes {
		ps = append(ps, rule(prodDatatype, ntDatatype, reduceIdentifier, term(dt)))
	}
	return ps
}

func passFirst(args []value) (value, error) {
	return args[0], nil
}

func reduceFile(args []value) (value, error) {
	doc, _ := args[1].node.(*tree.Map)
	return value{result: &tree.Result{Header: *args[0].header, Document: doc}}, nil
}

func reduceFileEmpty(args []value) (value, error) {
	return value{result: &tree.Result{Header: *args[0].header, Document: tree.NewMap()}}, nil
}

func reduceHeader(args []value) (value, error) {
	return value{header: &tree.Header{
		Keyword: args[0].token.Value,
		Version: args[1].token.Value,
	}}, nil
}

func reduceHeaderLabel(args []value) (value, error) {
	return value{header: &tree.Header{
		Keyword: args[0].token.Value,
		Label:   args[1].token.Value,
		Version: args[2].token.Value,
	}}, nil
}

func reduceStatementsFirst(args []value) (value, error) {
	doc := tree.NewMap()
	tree.Merge(doc, args[0].node.(*tree.Map))
	return value{node: doc}, nil
}

func reduceStatementsNext(args []value) (value, error) {
	doc := args[0].node.(*tree.Map)
	tree.Merge(doc, args[1].node.(*tree.Map))
	return value{node: doc}, nil
}

func reduceFiles(args []value) (value, error) {
	return value{node: tree.MapOf("files", pairsToMap(args[1].pairs))}, nil
}

func concatPairs(args []value) (value, error) {
	return value{pairs: append(args[0].pairs, args[1].pairs...)}, nil
}

func reduceFiledef(args []value) (value, error) {
	return value{pairs: []pair{{key: args[1].token.Value, node: tree.String(args[3].token.Value)}}}, nil
}

func reduceInclude(args []value) (value, error) {
	return value{node: tree.MapOf("include", args[1].node)}, nil
}

func reduceListFirst(args []value) (value, error) {
	n, err := tokenScalar(args[0].token)
	if err != nil {
		return value{}, err
	}
	return value{node: tree.NewList(n)}, nil
}

func reduceListNext(args []value) (value, error) {
	n, err := tokenScalar(args[2].token)
	if err != nil {
		return value{}, err
	}
	l := args[0].node.(*tree.List)
	l.Append(n)
	return value{node: l}, nil
}

func reduceApplElem(args []value) (value, error) {
	return applElem(args[1].token.Value, args[4].token.Value, args[5].node.(*tree.Map)), nil
}

func reduceApplElemEmpty(args []value) (value, error) {
	return applElem(args[1].token.Value, args[4].token.Value, tree.NewMap()), nil
}

func applElem(name string, base string, attrs *tree.Map) value {
	elem := tree.NewList(tree.Identifier(name), tree.Identifier(base), attrs)
	return value{node: tree.MapOf("applelem", tree.MapOf(name, elem))}
}

func reduceApplAttrsNext(args []value) (value, error) {
	return value{node: tree.Union(args[0].node.(*tree.Map), args[1].node.(*tree.Map))}, nil
}

func reduceApplAttr(args []value) (value, error) {
	name := args[1].token.Value
	attrs := args[3].node.(*tree.Map).Clone()
	attrs.Set("APPLATTR", tree.Identifier(name))
	return value{node: tree.MapOf(name, attrs)}, nil
}

func reduceAttrsNext(args []value) (value, error) {
	attrs := args[0].node.(*tree.Map)
	attrs.Update(args[2].node.(*tree.Map))
	return value{node: attrs}, nil
}

// reduceKeyword builds {keyword: value} where the keyword is the text of the
// first token and the value is the second symbol.
func reduceKeyword(args []value) (value, error) {
	v := args[1].node
	if v == nil {
		n, err := tokenScalar(args[1].token)
		if err != nil {
			return value{}, err
		}
		v = n
	}
	return value{node: tree.MapOf(args[0].token.Value, v)}, nil
}

func reduceFlag(args []value) (value, error) {
	return value{node: tree.MapOf(args[0].token.Value, tree.Bool(true))}, nil
}

func reduceCardinality(args []value) (value, error) {
	lower, err := tokenScalar(args[0].token)
	if err != nil {
		return value{}, err
	}
	upper, err := tokenScalar(args[2].token)
	if err != nil {
		return value{}, err
	}
	return value{node: tree.NewList(lower, upper)}, nil
}

func reduceIdentifier(args []value) (value, error) {
	return value{node: tree.Identifier(args[0].token.Value)}, nil
}

func reduceInstElem(args []value) (value, error) {
	name := args[1].token
	attrs := pairsToMap(args[2].pairs)
	id, ok := attrs.Get("Id")
	if !ok {
		return value{}, &actionError{
			code:    exc.CodeMissingRequiredKey,
			message: fmt.Sprintf("instance element %s has no Id attribute", name.Value),
			at:      name,
		}
	}
	key, ok := tree.KeyOf(id)
	if !ok {
		return value{}, &actionError{
			code:    exc.CodeInvalidKey,
			message: fmt.Sprintf("instance element %s has an Id that cannot be used as a key", name.Value),
			at:      name,
		}
	}
	return value{node: tree.MapOf("instelem", tree.MapOf(name.Value, tree.MapOf(key, attrs)))}, nil
}

func reduceInstElemEmpty(args []value) (value, error) {
	name := args[1].token
	return value{}, &actionError{
		code:    exc.CodeMissingRequiredKey,
		message: fmt.Sprintf("instance element %s has no Id attribute", name.Value),
		at:      name,
	}
}

func reduceAttributeValue(args []value) (value, error) {
	return value{pairs: []pair{{key: args[0].token.Value, node: args[2].node}}}, nil
}

func reduceTypedValue(args []value) (value, error) {
	return value{node: tree.NewList(args[0].node, args[2].node)}, nil
}

func reduceUndefined(args []value) (value, error) {
	return value{node: tree.Null()}, nil
}

func reduceComponent(args []value) (value, error) {
	comp := args[3].node.(*tree.Map).Clone()
	comp.Set(args[0].token.Value, tree.Identifier(args[1].token.Value))
	return value{node: comp}, nil
}

// reduceCompFields collects every "KEYWORD value" run of a component
// description into a mapping keyed by the keyword text.
func reduceCompFields(args []value) (value, error) {
	comp := tree.NewMap()
	for x := 0; x+1 < len(args); x = x + 1 {
		kw := args[x].token
		if kw == nil || !isComponentKeyword(kw.Type) {
			continue
		}
		v := args[x+1].node
		if v == nil {
			n, err := tokenScalar(args[x+1].token)
			if err != nil {
				return value{}, err
			}
			v = n
		}
		comp.Set(kw.Value, v)
	}
	return value{node: comp}, nil
}

func isComponentKeyword(t idl.TokenType) bool {
	return t >= idl.TokenTypeKeywordType && t <= idl.TokenTypeKeywordDescription
}

func reduceScalar(args []value) (value, error) {
	n, err := tokenScalar(args[0].token)
	if err != nil {
		return value{}, err
	}
	return value{node: n}, nil
}

func reducePrimsFirst(args []value) (value, error) {
	return value{node: tree.NewList(args[0].node, args[2].node)}, nil
}

func reducePrimsNext(args []value) (value, error) {
	l := args[0].node.(*tree.List)
	l.Append(args[2].node)
	return value{node: l}, nil
}

func pairsToMap(pairs []pair) *tree.Map {
	m := tree.NewMap()
	for _, p := range pairs {
		m.Set(p.key, p.node)
	}
	return m
}

// tokenScalar converts a literal token into a scalar node.
func tokenScalar(t *idl.Token) (*tree.Scalar, error) {
	switch t.Type {
	case idl.TokenTypeInteger:
		v, err := strconv.ParseInt(t.Value, 10, 64)
		if err != nil {
			return nil, &actionError{code: exc.CodeInvalidNumber, message: fmt.Sprintf("invalid integer %s", t.Value), at: t}
		}
		return tree.Integer(v), nil
	case idl.TokenTypeFloat:
		v, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return nil, &actionError{code: exc.CodeInvalidNumber, message: fmt.Sprintf("invalid float %s", t.Value), at: t}
		}
		return tree.Float(v), nil
	case idl.TokenTypeBool:
		return tree.Bool(t.Value == "TRUE"), nil
	case idl.TokenTypeString:
		return tree.String(t.Value), nil
	default:
		return tree.Identifier(t.Value), nil
	}
}
