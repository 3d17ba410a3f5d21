package expr

import "strings"

// EvalType is the statically inferred result category of an expression.
type EvalType int

const (
	EvalUnprocessed EvalType = iota
	EvalEmpty
	EvalNumber
	EvalBoolean
	EvalString
	// EvalNumberChange and EvalStringChange are the bare-delta forms only an
	// assignment allows, such as the "+2" in "*set strength +2".
	EvalNumberChange
	EvalStringChange
	// EvalUnknowable is a value only known at runtime, such as a variable.
	EvalUnknowable
	EvalError
)

func (t EvalType) String() string {
	switch t {
	case EvalUnprocessed:
		return "Unprocessed"
	case EvalEmpty:
		return "Empty"
	case EvalNumber:
		return "Number"
	case EvalBoolean:
		return "Boolean"
	case EvalString:
		return "String"
	case EvalNumberChange:
		return "NumberChange"
	case EvalStringChange:
		return "StringChange"
	case EvalUnknowable:
		return "Unknowable"
	case EvalError:
		return "Error"
	default:
		return "EvalType(?)"
	}
}

// IsConcrete reports whether the type is one of the three value types.
func (t EvalType) IsConcrete() bool {
	return t == EvalNumber || t == EvalBoolean || t == EvalString
}

// accepts reports whether a value of type t can stand where want is needed.
// Values only known at runtime are given the benefit of the doubt.
func (t EvalType) accepts(want EvalType) bool {
	return t == want || t == EvalUnknowable
}

func describe(t EvalType) string {
	switch t {
	case EvalNumber:
		return "a number"
	case EvalBoolean:
		return "true/false"
	case EvalString:
		return "a string"
	default:
		return strings.ToLower(t.String())
	}
}

var operatorKinds = map[string]Kind{
	"+":  KindMathOperator,
	"-":  KindMathOperator,
	"*":  KindMathOperator,
	"/":  KindMathOperator,
	"^":  KindMathOperator,
	"%+": KindMathOperator,
	"%-": KindMathOperator,
	"=":  KindComparisonOperator,
	"!=": KindComparisonOperator,
	"<":  KindComparisonOperator,
	">":  KindComparisonOperator,
	"<=": KindComparisonOperator,
	">=": KindComparisonOperator,
	"&":  KindStringOperator,
	"#":  KindStringOperator,
}

// symbolOperators in longest-first order for greedy matching.
var symbolOperators = []string{"%+", "%-", "<=", ">=", "!=", "+", "-", "*", "/", "^", "=", "<", ">", "&", "#"}

var namedOperators = map[string]Kind{
	"and":    KindBooleanNamedOperator,
	"or":     KindBooleanNamedOperator,
	"modulo": KindNumericNamedOperator,
}

var booleanValues = map[string]bool{
	"true":  true,
	"false": true,
}

// Function describes a built-in function's argument and return types.
type Function struct {
	Name    string
	ArgType EvalType
	Returns EvalType
}

// Functions are ChoiceScript's built-in functions, keyed by lowercase name.
var Functions = map[string]Function{
	"not":       {Name: "not", ArgType: EvalBoolean, Returns: EvalBoolean},
	"round":     {Name: "round", ArgType: EvalNumber, Returns: EvalNumber},
	"timestamp": {Name: "timestamp", ArgType: EvalString, Returns: EvalNumber},
	"log":       {Name: "log", ArgType: EvalNumber, Returns: EvalNumber},
	"length":    {Name: "length", ArgType: EvalString, Returns: EvalNumber},
}

// IsFunction reports whether name is a built-in function.
func IsFunction(name string) bool {
	_, ok := Functions[strings.ToLower(name)]
	return ok
}

// IsKeyword reports whether a bare word is reserved by the expression
// language, and so can't be a variable name.
func IsKeyword(word string) bool {
	w := strings.ToLower(word)
	_, named := namedOperators[w]
	return named || booleanValues[w] || IsFunction(w)
}

// compoundOperators may lead a bare-delta assignment, such as "*set x %+10".
// Multiplication and division always need both operands.
var compoundOperators = map[string]bool{
	"+": true, "-": true, "%+": true, "%-": true,
	"&": true, "#": true,
}

func isCompoundOperator(t Token) bool {
	if t.Kind() != KindMathOperator && t.Kind() != KindStringOperator {
		return false
	}
	return compoundOperators[t.Text()]
}

// isInequality reports whether a comparison operator orders its operands.
func isInequality(op string) bool {
	return op == "<" || op == ">" || op == "<=" || op == ">="
}
