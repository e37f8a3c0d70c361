// WGSL compute kernels for the matrix primitives. String constants,
// compiled once and cached by kernel name. All matrices are column-major:
// element (r, c) of a matrix with leading dimension ld lives at c*ld + r.

package webgpu

import "github.com/ycktw/libdnn/internal/mat"

// workgroupSize is the number of threads per workgroup.
const workgroupSize = 256

// geamShader computes dst[dr:, dc:] = alpha*a[ar:, ac:] + beta*b[br:, bc:]
// over a rows×cols window, one thread per cell.
const geamShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
    dld: u32,
    ald: u32,
    bld: u32,
    dr: u32,
    dc: u32,
    ar: u32,
    ac: u32,
    br: u32,
    bc: u32,
    alpha: f32,
    beta: f32,
}
@group(0) @binding(3) var<uniform> p: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let idx = gid.x;
    if (idx >= p.rows * p.cols) {
        return;
    }
    let r = idx % p.rows;
    let c = idx / p.rows;
    let av = a[(p.ac + c) * p.ald + p.ar + r];
    let bv = b[(p.bc + c) * p.bld + p.br + r];
    dst[(p.dc + c) * p.dld + p.dr + r] = p.alpha * av + p.beta * bv;
}
`

// gemmShader computes dst[dr:, dc:] = alpha*op(A)·op(B) + beta*dst[dr:, dc:]
// for an m×n output window with contraction length k, one thread per
// output cell. transA/transB select the transposed read of each window.
const gemmShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

struct Params {
    m: u32,
    n: u32,
    k: u32,
    dld: u32,
    ald: u32,
    bld: u32,
    dr: u32,
    dc: u32,
    ar: u32,
    ac: u32,
    br: u32,
    bc: u32,
    transA: u32,
    transB: u32,
    alpha: f32,
    beta: f32,
}
@group(0) @binding(3) var<uniform> p: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let idx = gid.x;
    if (idx >= p.m * p.n) {
        return;
    }
    let i = idx % p.m;
    let j = idx / p.m;
    var sum: f32 = 0.0;
    for (var q: u32 = 0u; q < p.k; q = q + 1u) {
        var av: f32;
        if (p.transA != 0u) {
            av = a[(p.ac + i) * p.ald + p.ar + q];
        } else {
            av = a[(p.ac + q) * p.ald + p.ar + i];
        }
        var bv: f32;
        if (p.transB != 0u) {
            bv = b[(p.bc + q) * p.bld + p.br + j];
        } else {
            bv = b[(p.bc + j) * p.bld + p.br + q];
        }
        sum = sum + av * bv;
    }
    let di = (p.dc + j) * p.dld + p.dr + i;
    dst[di] = p.alpha * sum + p.beta * dst[di];
}
`

// mulShader computes the Hadamard product dst = a * b.
const mulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> p: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let idx = gid.x;
    if (idx < p.size) {
        dst[idx] = a[idx] * b[idx];
    }
}
`

// fillShader sets a rows×cols region of dst to a constant.
const fillShader = `
@group(0) @binding(0) var<storage, read_write> dst: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
    ld: u32,
    r: u32,
    c: u32,
    value: f32,
}
@group(0) @binding(1) var<uniform> p: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let idx = gid.x;
    if (idx >= p.rows * p.cols) {
        return;
    }
    let i = idx % p.rows;
    let j = idx / p.rows;
    dst[(p.c + j) * p.ld + p.r + i] = p.value;
}
`

// softmaxShader computes a stable row-wise softmax, one thread per row.
const softmaxShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> dst: array<f32>;

struct Params {
    rows: u32,
    cols: u32,
}
@group(0) @binding(2) var<uniform> p: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let r = gid.x;
    if (r >= p.rows) {
        return;
    }
    var rowMax: f32 = src[r];
    for (var j: u32 = 1u; j < p.cols; j = j + 1u) {
        rowMax = max(rowMax, src[j * p.rows + r]);
    }
    var sum: f32 = 0.0;
    for (var j: u32 = 0u; j < p.cols; j = j + 1u) {
        let e = exp(src[j * p.rows + r] - rowMax);
        dst[j * p.rows + r] = e;
        sum = sum + e;
    }
    for (var j: u32 = 0u; j < p.cols; j = j + 1u) {
        dst[j * p.rows + r] = dst[j * p.rows + r] / sum;
    }
}
`

// unaryShader is the elementwise map template; EXPR computes the output
// from x.
const unaryShaderPrefix = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read_write> dst: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> p: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let idx = gid.x;
    if (idx >= p.size) {
        return;
    }
    let x = src[idx];
    dst[idx] = `

// applyShaders maps each ElemFunc to its kernel.
var applyShaders = map[mat.ElemFunc]string{
	mat.FuncSigmoid: unaryShaderPrefix + `1.0 / (1.0 + exp(-x));
}
`,
	mat.FuncExp: unaryShaderPrefix + `exp(x);
}
`,
	mat.FuncTanh: unaryShaderPrefix + `tanh(x);
}
`,
	mat.FuncNeg: unaryShaderPrefix + `-x;
}
`,
}
