package life

import (
	"image"

	"github.com/ronikiienko/wgpu-game-of-life/internal/gpu"
)

// rule is B3/S23.
func rule(alive uint8, neighbours int) uint8 {
	if neighbours == 3 || (alive == 1 && neighbours == 2) {
		return 1
	}
	return 0
}

// lifeFragment counts neighbours by sampling one texel away on each axis;
// the sampler's REPEAT addressing supplies the toroidal wrap.
func lifeFragment(src gpu.Sampler, u, v float32) uint8 {
	w, h := src.Size()
	du, dv := 1/float32(w), 1/float32(h)
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n += int(src.Sample(u+float32(dx)*du, v+float32(dy)*dv))
		}
	}
	return rule(src.Sample(u, v), n)
}

// lifeCompute handles one work-group tile against linear buffers, wrapping
// each axis independently.
func lifeCompute(src, dst []byte, width, height int, tile image.Rectangle) {
	for y := tile.Min.Y; y < tile.Max.Y; y++ {
		up := ((y + height - 1) % height) * width
		mid := y * width
		down := ((y + 1) % height) * width
		for x := tile.Min.X; x < tile.Max.X; x++ {
			l := (x + width - 1) % width
			r := (x + 1) % width
			n := int(src[up+l]) + int(src[up+x]) + int(src[up+r]) +
				int(src[mid+l]) + int(src[mid+r]) +
				int(src[down+l]) + int(src[down+x]) + int(src[down+r])
			dst[mid+x] = rule(src[mid+x], n)
		}
	}
}

const computeKernelSource = `__kernel void life_step(
    const int width,
    const int height,
    __global const uchar* src,
    __global uchar* dst)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    int xl = (x + width - 1) % width;
    int xr = (x + 1) % width;
    int up = ((y + height - 1) % height) * width;
    int mid = y * width;
    int down = ((y + 1) % height) * width;
    int n = src[up + xl] + src[up + x] + src[up + xr]
          + src[mid + xl] + src[mid + xr]
          + src[down + xl] + src[down + x] + src[down + xr];
    uchar alive = src[mid + x];
    dst[mid + x] = (n == 3 || (alive == 1 && n == 2)) ? 1 : 0;
}`

const fragmentKernelSource = `__constant sampler_t grid_sampler =
    CLK_NORMALIZED_COORDS_TRUE | CLK_ADDRESS_REPEAT | CLK_FILTER_NEAREST;

__kernel void life_fragment(
    const int width,
    const int height,
    __read_only image2d_t src,
    __write_only image2d_t dst)
{
    int2 px = (int2)(get_global_id(0), get_global_id(1));
    if (px.x >= width || px.y >= height) {
        return;
    }
    float2 texel = (float2)(1.0f / (float)width, 1.0f / (float)height);
    float2 uv = ((float2)((float)px.x, (float)px.y) + 0.5f) * texel;
    uint n = 0;
    for (int dy = -1; dy <= 1; dy++) {
        for (int dx = -1; dx <= 1; dx++) {
            if (dx == 0 && dy == 0) {
                continue;
            }
            n += read_imageui(src, grid_sampler, uv + (float2)((float)dx, (float)dy) * texel).x;
        }
    }
    uint alive = read_imageui(src, grid_sampler, uv).x;
    uint next = (n == 3 || (alive == 1 && n == 2)) ? 1 : 0;
    write_imageui(dst, px, (uint4)(next, 0, 0, 0));
}`
