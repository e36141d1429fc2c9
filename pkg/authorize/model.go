package authorize

// DefaultModel is used when no casbin model file is configured.
//
// Requests are (role, clinic domain, resource, action). Policies may target a
// single clinic (clinic:<uuid>) or every clinic (*); an explicit deny wins.
const DefaultModel = `[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act, eft

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = r.sub == p.sub && (p.dom == "*" || p.dom == r.dom) && (p.obj == "*" || keyMatch2(r.obj, p.obj)) && (p.act == "*" || keyMatch(r.act, p.act))
`
